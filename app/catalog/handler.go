package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/app/metrics"
	"github.com/mytheresa/product-catalog/app/validation"
	"github.com/mytheresa/product-catalog/models"
)

// Response is the paginated listing envelope.
type Response struct {
	Data        []Product `json:"data"`
	CurrentPage int       `json:"current_page"`
	PerPage     int       `json:"per_page"`
	Total       int64     `json:"total"`
	LastPage    int       `json:"last_page"`
	From        *int      `json:"from"`
	To          *int      `json:"to"`
}

type Product struct {
	ID          uint        `json:"id"`
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	Price       json.Number `json:"price"`
	CategoryID  uint        `json:"category_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	DeletedAt   *time.Time  `json:"deleted_at"`
}

type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, filters models.ProductFilters) (models.ProductPage, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product, changes models.ProductChanges) error
	Delete(ctx context.Context, id uint) error
}

type ProductValidator interface {
	ForCreate(ctx context.Context, in validation.ProductInput) (*models.Product, *validation.Errors, error)
	ForUpdate(ctx context.Context, id uint, in validation.ProductInput) (models.ProductChanges, *validation.Errors, error)
}

type CatalogHandler struct {
	repo  ProductProvider
	rules ProductValidator
	log   *zap.Logger
}

func NewCatalogHandler(r ProductProvider, rules ProductValidator, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		repo:  r,
		rules: rules,
		log:   log,
	}
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	filters, errs := validation.ProductListQuery(r.URL.Query())
	if !errs.Empty() {
		api.ValidationFailed(w, errs)
		return
	}

	page, err := h.repo.GetFilteredProducts(r.Context(), filters)
	if err != nil {
		api.ServerError(w, r, h.log, "failed to list products", err)
		return
	}

	products := make([]Product, len(page.Items))
	for i := range page.Items {
		products[i] = toProduct(&page.Items[i])
	}

	response := Response{
		Data:        products,
		CurrentPage: page.Page,
		PerPage:     page.PerPage,
		Total:       page.Total,
		LastPage:    page.LastPage(),
	}
	if n := len(products); n > 0 {
		from := (page.Page-1)*page.PerPage + 1
		to := from + n - 1
		response.From, response.To = &from, &to
	}
	api.JSON(w, http.StatusOK, response)
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.resolve(w, r)
	if !ok {
		return
	}
	api.JSON(w, http.StatusOK, toProduct(product))
}

func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input validation.ProductInput
	if err := api.DecodeJSON(r, &input); err != nil {
		api.RejectBody(w, err)
		return
	}

	product, errs, err := h.rules.ForCreate(r.Context(), input)
	if err != nil {
		api.ServerError(w, r, h.log, "failed to validate product", err)
		return
	}
	if !errs.Empty() {
		api.ValidationFailed(w, errs)
		return
	}

	if err := h.repo.Create(r.Context(), product); err != nil {
		if errors.Is(err, models.ErrDuplicateProductName) {
			api.ValidationFailed(w, nameTaken())
			return
		}
		api.ServerError(w, r, h.log, "failed to create product", err)
		return
	}
	metrics.ProductWritten("create")

	api.JSON(w, http.StatusCreated, toProduct(product))
}

// HandleUpdate serves both PUT and PATCH: only the fields present in the
// body are written.
func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	product, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var input validation.ProductInput
	if err := api.DecodeJSON(r, &input); err != nil {
		api.RejectBody(w, err)
		return
	}

	changes, errs, err := h.rules.ForUpdate(r.Context(), product.ID, input)
	if err != nil {
		api.ServerError(w, r, h.log, "failed to validate product", err)
		return
	}
	if !errs.Empty() {
		api.ValidationFailed(w, errs)
		return
	}

	if err := h.repo.Update(r.Context(), product, changes); err != nil {
		switch {
		case errors.Is(err, models.ErrProductNotFound):
			api.NotFound(w, "product", product.ID)
		case errors.Is(err, models.ErrDuplicateProductName):
			api.ValidationFailed(w, nameTaken())
		default:
			api.ServerError(w, r, h.log, "failed to update product", err)
		}
		return
	}
	metrics.ProductWritten("update")

	api.JSON(w, http.StatusOK, toProduct(product))
}

func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		api.NotFound(w, "product", r.PathValue("id"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.NotFound(w, "product", id)
			return
		}
		api.ServerError(w, r, h.log, "failed to delete product", err)
		return
	}
	metrics.ProductWritten("delete")

	api.JSON(w, http.StatusOK, map[string]bool{"status": true})
}

// resolve looks up the live product named by the {id} path value and writes
// the 404 itself when there is none.
func (h *CatalogHandler) resolve(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	raw := r.PathValue("id")
	id, ok := parseID(raw)
	if !ok {
		api.NotFound(w, "product", raw)
		return nil, false
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.NotFound(w, "product", id)
			return nil, false
		}
		api.ServerError(w, r, h.log, "failed to retrieve product", err)
		return nil, false
	}
	return product, true
}

func toProduct(p *models.Product) Product {
	out := Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       json.Number(p.Price.StringFixed(2)),
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.DeletedAt.Valid {
		deleted := p.DeletedAt.Time
		out.DeletedAt = &deleted
	}
	return out
}

func nameTaken() *validation.Errors {
	errs := &validation.Errors{}
	errs.Add("name", "The name has already been taken.")
	return errs
}

func parseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
