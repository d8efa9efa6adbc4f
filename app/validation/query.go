package validation

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mytheresa/product-catalog/models"
)

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 100

// ProductListQuery parses the listing query string into repository filters.
func ProductListQuery(q url.Values) (models.ProductFilters, *Errors) {
	errs := &Errors{}
	filters := models.ProductFilters{
		Search:  strings.TrimSpace(q.Get("search")),
		Page:    1,
		PerPage: models.DefaultPerPage,
	}

	if len(filters.Search) > maxNameLength {
		errs.Add("search", "The search field must not be greater than 255 characters.")
	}

	if v := strings.TrimSpace(q.Get("category_id")); v != "" {
		if id, ok := parseID(v); ok {
			filters.CategoryID = &id
		} else {
			errs.Add("category_id", "The category id field must be an integer.")
		}
	}

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs.Add("page", "The page field must be an integer.")
		case n < 1:
			errs.Add("page", "The page field must be at least 1.")
		default:
			filters.Page = n
		}
	}

	if v := strings.TrimSpace(q.Get("per_page")); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs.Add("per_page", "The per page field must be an integer.")
		case n < 1 || n > MaxPerPage:
			errs.Add("per_page", "The per page field must be between 1 and "+strconv.Itoa(MaxPerPage)+".")
		default:
			filters.PerPage = n
		}
	}

	if maxPage := models.MaxPage(filters.PerPage); filters.Page > maxPage {
		errs.Add("page", "The page field must not be greater than "+strconv.Itoa(maxPage)+".")
	}

	return filters, errs
}
