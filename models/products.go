package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the catalog.
// A non-null DeletedAt marks the product as soft-deleted; gorm's default
// scope hides such rows from every query issued through the repository.
type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:255;not null;uniqueIndex:idx_products_name_live,where:deleted_at IS NULL"`
	Description *string         `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CategoryID  uint            `gorm:"not null;index"`
	Category    Category        `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (p *Product) TableName() string {
	return "products"
}

// ProductChanges carries the fields supplied on a partial update.
// A nil pointer means the field was absent from the request.
type ProductChanges struct {
	Name       *string
	Price      *decimal.Decimal
	CategoryID *uint

	// SetDescription distinguishes "absent" from "explicitly null";
	// when set, Description (possibly nil) replaces the stored value.
	SetDescription bool
	Description    *string
}

// Empty reports whether no field was supplied.
func (c ProductChanges) Empty() bool {
	return c.Name == nil && c.Price == nil && c.CategoryID == nil && !c.SetDescription
}

// columns maps the supplied fields to column values for a gorm Updates call.
func (c ProductChanges) columns() map[string]any {
	cols := map[string]any{}
	if c.Name != nil {
		cols["name"] = *c.Name
	}
	if c.Price != nil {
		cols["price"] = *c.Price
	}
	if c.CategoryID != nil {
		cols["category_id"] = *c.CategoryID
	}
	if c.SetDescription {
		cols["description"] = c.Description
	}
	return cols
}
