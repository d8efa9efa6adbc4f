package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mytheresa/product-catalog/app/validation"
	"github.com/mytheresa/product-catalog/models"
)

// --- Mock Repo ---

type MockProductRepo struct {
	SourceProducts []models.Product
	Err            error
	WriteErr       error

	// Fields to capture call arguments
	lastCalledFilters models.ProductFilters
	lastCalledID      uint
	lastChanges       *models.ProductChanges
	created           *models.Product
	deletedID         uint
}

func (m *MockProductRepo) GetFilteredProducts(_ context.Context, filters models.ProductFilters) (models.ProductPage, error) {
	m.lastCalledFilters = filters

	if m.Err != nil {
		return models.ProductPage{}, m.Err
	}

	// Simulate filtering
	var filtered []models.Product
	for _, p := range m.live() {
		if filters.CategoryID != nil && p.CategoryID != *filters.CategoryID {
			continue
		}
		if filters.Search != "" {
			needle := strings.ToLower(filters.Search)
			desc := ""
			if p.Description != nil {
				desc = *p.Description
			}
			if !strings.Contains(strings.ToLower(p.Name), needle) && !strings.Contains(strings.ToLower(desc), needle) {
				continue
			}
		}
		filtered = append(filtered, p)
	}

	// Simulate pagination
	start := (filters.Page - 1) * filters.PerPage
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + filters.PerPage
	if end > len(filtered) {
		end = len(filtered)
	}

	return models.ProductPage{
		Items:   filtered[start:end],
		Total:   int64(len(filtered)),
		Page:    filters.Page,
		PerPage: filters.PerPage,
	}, nil
}

func (m *MockProductRepo) GetByID(_ context.Context, id uint) (*models.Product, error) {
	m.lastCalledID = id

	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.live() {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (m *MockProductRepo) Create(_ context.Context, product *models.Product) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	product.ID = uint(len(m.SourceProducts) + 1)
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	m.created = product
	m.SourceProducts = append(m.SourceProducts, *product)
	return nil
}

func (m *MockProductRepo) Update(_ context.Context, product *models.Product, changes models.ProductChanges) error {
	m.lastChanges = &changes
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if changes.Name != nil {
		product.Name = *changes.Name
	}
	if changes.Price != nil {
		product.Price = *changes.Price
	}
	if changes.CategoryID != nil {
		product.CategoryID = *changes.CategoryID
	}
	if changes.SetDescription {
		product.Description = changes.Description
	}
	return nil
}

func (m *MockProductRepo) Delete(_ context.Context, id uint) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	for i, p := range m.SourceProducts {
		if p.ID == id && !p.DeletedAt.Valid {
			m.SourceProducts[i].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
			m.deletedID = id
			return nil
		}
	}
	return models.ErrProductNotFound
}

func (m *MockProductRepo) NameTaken(_ context.Context, name string, excludeID uint) (bool, error) {
	for _, p := range m.live() {
		if p.ID != excludeID && p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockProductRepo) live() []models.Product {
	var out []models.Product
	for _, p := range m.SourceProducts {
		if !p.DeletedAt.Valid {
			out = append(out, p)
		}
	}
	return out
}

// MockCategories knows categories 1 and 2.
type MockCategories struct {
	Err error
}

func (m MockCategories) CategoryExists(_ context.Context, id uint) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return id == 1 || id == 2, nil
}

// --- Helpers ---

func newTestProduct(id uint, name string, categoryID uint, price string) models.Product {
	return models.Product{
		ID:         id,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		CategoryID: categoryID,
	}
}

func newTestHandler(repo *MockProductRepo) *CatalogHandler {
	return NewCatalogHandler(repo, validation.NewProductRules(repo, MockCategories{}), zap.NewNop())
}

func ptr[T any](v T) *T { return &v }

// --- Tests ---

func TestHandleGet(t *testing.T) {
	described := newTestProduct(3, "Pixel 9", 1, "799.00")
	described.Description = ptr("Pairs well with an iPhone case")

	allMockProducts := []models.Product{
		newTestProduct(1, "iPhone 15", 1, "999.99"),
		newTestProduct(2, "MacBook Air", 2, "1299.00"),
		described,
		newTestProduct(4, "iPhone 15 Pro", 1, "1199.50"),
	}

	testCases := []struct {
		name               string
		url                string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCalls     func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name: "Success with default pagination",
			url:  "/api/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, int64(4), resp.Total)
				assert.Len(t, resp.Data, 4)
				assert.Equal(t, 1, resp.CurrentPage)
				assert.Equal(t, 15, resp.PerPage)
				assert.Equal(t, 1, resp.LastPage)
				assert.Equal(t, "iPhone 15", resp.Data[0].Name)
				assert.Equal(t, json.Number("999.99"), resp.Data[0].Price)
				require.NotNil(t, resp.From)
				assert.Equal(t, 1, *resp.From)
				assert.Equal(t, 4, *resp.To)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, 1, repo.lastCalledFilters.Page)
				assert.Equal(t, models.DefaultPerPage, repo.lastCalledFilters.PerPage)
				assert.Empty(t, repo.lastCalledFilters.Search)
				assert.Nil(t, repo.lastCalledFilters.CategoryID)
			},
		},
		{
			name: "Success with custom pagination",
			url:  "/api/products?page=2&per_page=3",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, int64(4), resp.Total)
				assert.Len(t, resp.Data, 1)
				assert.Equal(t, 2, resp.LastPage)
				assert.Equal(t, "iPhone 15 Pro", resp.Data[0].Name)
				require.NotNil(t, resp.From)
				assert.Equal(t, 4, *resp.From)
				assert.Equal(t, 4, *resp.To)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, 2, repo.lastCalledFilters.Page)
				assert.Equal(t, 3, repo.lastCalledFilters.PerPage)
			},
		},
		{
			name: "Page past the end is empty",
			url:  "/api/products?page=9",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.NotNil(t, resp.Data)
				assert.Empty(t, resp.Data)
				assert.Nil(t, resp.From)
				assert.Nil(t, resp.To)
			},
		},
		{
			name: "Search matches name and description",
			url:  "/api/products?search=iphone",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, int64(3), resp.Total)
				assert.Equal(t, "Pixel 9", resp.Data[1].Name)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, "iphone", repo.lastCalledFilters.Search)
			},
		},
		{
			name: "Filter by category",
			url:  "/api/products?category_id=2",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, int64(1), resp.Total)
				assert.Equal(t, "MacBook Air", resp.Data[0].Name)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				require.NotNil(t, repo.lastCalledFilters.CategoryID)
				assert.Equal(t, uint(2), *repo.lastCalledFilters.CategoryID)
			},
		},
		{
			name: "Soft-deleted products are not listed",
			url:  "/api/products",
			mockRepoSetup: func() *MockProductRepo {
				gone := newTestProduct(5, "Old Phone", 1, "10.00")
				gone.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
				return &MockProductRepo{SourceProducts: append(append([]models.Product{}, allMockProducts...), gone)}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, int64(4), resp.Total)
			},
		},
		{
			name: "Invalid query values",
			url:  "/api/products?page=0&per_page=500&category_id=abc",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusUnprocessableEntity,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp struct {
					Message string              `json:"message"`
					Errors  map[string][]string `json:"errors"`
				}
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Contains(t, resp.Errors, "page")
				assert.Contains(t, resp.Errors, "per_page")
				assert.Contains(t, resp.Errors, "category_id")
				assert.Equal(t, "The category id field must be an integer. (and 2 more errors)", resp.Message)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Zero(t, repo.lastCalledFilters.Page, "repository must not be queried")
			},
		},
		{
			name: "Repository error",
			url:  "/api/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("database connection failed")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `{"message":"Server Error."}`, rec.Body.String())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := newTestHandler(mockRepo)
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGet(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.checkRepoCalls != nil {
				tc.checkRepoCalls(t, mockRepo)
			}
		})
	}
}
