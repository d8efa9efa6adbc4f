package models

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
)

// DefaultPerPage is the page size used when a listing does not ask for one.
const DefaultPerPage = 15

type ProductsRepository struct {
	db *gorm.DB
}

var (
	// ErrProductNotFound is returned when a product is unknown or soft-deleted.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateProductName is returned when the store rejects a name
	// already used by a live product.
	ErrDuplicateProductName = errors.New("product name already taken")
)

type ProductFilters struct {
	Search     string
	CategoryID *uint
	Page       int
	PerPage    int
}

// ProductPage is one page of a filtered listing.
type ProductPage struct {
	Items   []Product
	Total   int64
	Page    int
	PerPage int
}

// LastPage returns the number of the final page, never less than 1.
func (p ProductPage) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// MaxPage is the highest page whose rows can be addressed with perPage rows
// per page before the offset overflows an int.
func MaxPage(perPage int) int {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return (math.MaxInt-perPage)/perPage + 1
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, filters ProductFilters) (ProductPage, error) {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	perPage := filters.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	query := r.db.WithContext(ctx).Model(&Product{})

	// Filter
	if term := strings.TrimSpace(filters.Search); term != "" {
		query = query.Where(searchClause(r.db.Dialector.Name()), searchArgs(term)...)
	}
	if filters.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filters.CategoryID)
	}

	// Count total after filtering
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return ProductPage{}, fmt.Errorf("count products: %w", err)
	}

	products := []Product{}
	if page > MaxPage(perPage) {
		return ProductPage{Items: products, Total: total, Page: page, PerPage: perPage}, nil
	}
	if err := query.
		Order("products.id ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&products).Error; err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}

	return ProductPage{Items: products, Total: total, Page: page, PerPage: perPage}, nil
}

func (r *ProductsRepository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &product, nil
}

func (r *ProductsRepository) Create(ctx context.Context, product *Product) error {
	if err := r.db.WithContext(ctx).Omit("Category").Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateProductName
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// Update writes only the supplied columns and reloads the product so the
// caller sees the stored state, including the refreshed UpdatedAt.
func (r *ProductsRepository) Update(ctx context.Context, product *Product, changes ProductChanges) error {
	db := r.db.WithContext(ctx)
	if !changes.Empty() {
		res := db.Model(product).Omit("Category").Updates(changes.columns())
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return ErrDuplicateProductName
			}
			return fmt.Errorf("update product %d: %w", product.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
	}

	var fresh Product
	if err := db.First(&fresh, product.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("reload product %d: %w", product.ID, err)
	}
	*product = fresh
	return nil
}

// Delete soft-deletes a live product. Deleting twice reports ErrProductNotFound.
func (r *ProductsRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// NameTaken reports whether a live product other than excludeID uses name.
// Pass 0 as excludeID when creating.
func (r *ProductsRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&Product{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check product name: %w", err)
	}
	return count > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// searchClause matches the term against name or description, ignoring case.
// SQLite folds ASCII letters only, so non-ASCII case differences still
// separate matches on the sqlite driver.
func searchClause(dialect string) string {
	if dialect == "postgres" {
		return `(products.name ILIKE ? ESCAPE '\' OR products.description ILIKE ? ESCAPE '\')`
	}
	return `(LOWER(products.name) LIKE ? ESCAPE '\' OR LOWER(products.description) LIKE ? ESCAPE '\')`
}

func searchArgs(term string) []any {
	like := "%" + escapeLike(strings.ToLower(term)) + "%"
	return []any{like, like}
}
