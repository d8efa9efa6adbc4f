package categories

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/app/validation"
	"github.com/mytheresa/product-catalog/models"
)

type CategoryResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryProvider interface {
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
}

type CategoryHandler struct {
	repo CategoryProvider
	log  *zap.Logger
}

func NewCategoryHandler(r CategoryProvider, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{repo: r, log: log}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories(r.Context())
	if err != nil {
		api.ServerError(w, r, h.log, "failed to fetch categories", err)
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		response[i] = toResponse(c)
	}
	api.JSON(w, http.StatusOK, response)
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input validation.CategoryInput
	if err := api.DecodeJSON(r, &input); err != nil {
		api.RejectBody(w, err)
		return
	}

	name, errs := validation.CategoryName(input)
	if !errs.Empty() {
		api.ValidationFailed(w, errs)
		return
	}

	category := &models.Category{Name: name}
	if err := h.repo.CreateCategory(r.Context(), category); err != nil {
		api.ServerError(w, r, h.log, "failed to create category", err)
		return
	}

	api.JSON(w, http.StatusCreated, toResponse(*category))
}

func toResponse(c models.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
