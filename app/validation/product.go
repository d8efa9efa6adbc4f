package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mytheresa/product-catalog/models"
)

const maxNameLength = 255

var (
	minPrice = decimal.RequireFromString("0.01")
	maxPrice = decimal.RequireFromString("99999999.99")
)

// ProductInput is the raw product body. Each field keeps its JSON text so
// that "absent", "null" and wrongly typed values can be told apart.
type ProductInput struct {
	Name        json.RawMessage `json:"name"`
	Description json.RawMessage `json:"description"`
	Price       json.RawMessage `json:"price"`
	CategoryID  json.RawMessage `json:"category_id"`
}

// NameChecker probes product name uniqueness among live products.
type NameChecker interface {
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
}

// CategoryChecker probes category existence.
type CategoryChecker interface {
	CategoryExists(ctx context.Context, id uint) (bool, error)
}

// ProductRules runs the create and update rule sets against the store.
type ProductRules struct {
	names      NameChecker
	categories CategoryChecker
}

func NewProductRules(names NameChecker, categories CategoryChecker) *ProductRules {
	return &ProductRules{names: names, categories: categories}
}

// ForCreate validates a create body. On success the returned product is
// ready to persist. The error return is reserved for store failures.
func (r *ProductRules) ForCreate(ctx context.Context, in ProductInput) (*models.Product, *Errors, error) {
	errs := &Errors{}
	product := &models.Product{}

	// name
	switch {
	case !present(in.Name) || isNull(in.Name):
		errs.Add("name", "The name field is required.")
	default:
		if name, ok := r.checkName(errs, in.Name, true); ok {
			if err := r.checkUnique(ctx, errs, name, 0); err != nil {
				return nil, nil, err
			}
			product.Name = name
		}
	}

	// price
	if !present(in.Price) || isNull(in.Price) {
		errs.Add("price", "The price field is required.")
	} else if price, ok := checkPrice(errs, in.Price); ok {
		product.Price = price
	}

	// description
	if desc, ok := checkDescription(errs, in.Description); ok {
		product.Description = desc
	}

	// category_id
	if !present(in.CategoryID) || isNull(in.CategoryID) {
		errs.Add("category_id", "The category id field is required.")
	} else {
		id, err := r.checkCategory(ctx, errs, in.CategoryID)
		if err != nil {
			return nil, nil, err
		}
		product.CategoryID = id
	}

	if !errs.Empty() {
		return nil, errs, nil
	}
	return product, errs, nil
}

// ForUpdate validates a partial update of product id. Only fields present
// in the body are checked and returned as changes.
func (r *ProductRules) ForUpdate(ctx context.Context, id uint, in ProductInput) (models.ProductChanges, *Errors, error) {
	errs := &Errors{}
	var changes models.ProductChanges

	if present(in.Name) {
		if isNull(in.Name) {
			errs.Add("name", "The name field must be a string.")
		} else if name, ok := r.checkName(errs, in.Name, false); ok {
			if err := r.checkUnique(ctx, errs, name, id); err != nil {
				return models.ProductChanges{}, nil, err
			}
			changes.Name = &name
		}
	}

	if present(in.Price) {
		if isNull(in.Price) {
			errs.Add("price", "The price field must be a number.")
		} else if price, ok := checkPrice(errs, in.Price); ok {
			changes.Price = &price
		}
	}

	if present(in.Description) {
		if desc, ok := checkDescription(errs, in.Description); ok {
			changes.SetDescription = true
			changes.Description = desc
		}
	}

	if present(in.CategoryID) {
		if isNull(in.CategoryID) {
			errs.Add("category_id", "The category id field must be an integer.")
		} else {
			categoryID, err := r.checkCategory(ctx, errs, in.CategoryID)
			if err != nil {
				return models.ProductChanges{}, nil, err
			}
			if categoryID != 0 {
				changes.CategoryID = &categoryID
			}
		}
	}

	if !errs.Empty() {
		return models.ProductChanges{}, errs, nil
	}
	return changes, errs, nil
}

func (r *ProductRules) checkName(errs *Errors, raw json.RawMessage, creating bool) (string, bool) {
	name, ok := asString(raw)
	if !ok {
		errs.Add("name", "The name field must be a string.")
		return "", false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		if creating {
			errs.Add("name", "The name field is required.")
		} else {
			errs.Add("name", "The name field must not be empty.")
		}
		return "", false
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		errs.Add("name", fmt.Sprintf("The name field must not be greater than %d characters.", maxNameLength))
		return "", false
	}
	return name, true
}

func (r *ProductRules) checkUnique(ctx context.Context, errs *Errors, name string, excludeID uint) error {
	taken, err := r.names.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		errs.Add("name", "The name has already been taken.")
	}
	return nil
}

// checkCategory returns 0 when the value is invalid; the violation is recorded.
func (r *ProductRules) checkCategory(ctx context.Context, errs *Errors, raw json.RawMessage) (uint, error) {
	id, ok := asID(raw)
	if !ok {
		errs.Add("category_id", "The category id field must be an integer.")
		return 0, nil
	}
	exists, err := r.categories.CategoryExists(ctx, id)
	if err != nil {
		return 0, err
	}
	if !exists {
		errs.Add("category_id", "The selected category id is invalid.")
		return 0, nil
	}
	return id, nil
}

func checkPrice(errs *Errors, raw json.RawMessage) (decimal.Decimal, bool) {
	price, ok := asNumber(raw)
	if !ok {
		errs.Add("price", "The price field must be a number.")
		return decimal.Decimal{}, false
	}
	if price.LessThan(minPrice) {
		errs.Add("price", "The price field must be at least "+minPrice.String()+".")
		return decimal.Decimal{}, false
	}
	if price.GreaterThan(maxPrice) {
		errs.Add("price", "The price field must not be greater than "+maxPrice.StringFixed(2)+".")
		return decimal.Decimal{}, false
	}
	return price.Round(2), true
}

// checkDescription accepts absent, null or a string; blank strings become nil.
func checkDescription(errs *Errors, raw json.RawMessage) (*string, bool) {
	if !present(raw) || isNull(raw) {
		return nil, true
	}
	desc, ok := asString(raw)
	if !ok {
		errs.Add("description", "The description field must be a string.")
		return nil, false
	}
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return nil, true
	}
	return &desc, true
}
