package database

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mytheresa/product-catalog/config"
	"github.com/mytheresa/product-catalog/models"
)

// DefaultCategories are created on first seed.
var DefaultCategories = []string{"Smartphones", "Laptops", "Audio", "Accessories", "Wearables"}

// Seed inserts the default categories and the admin user when missing.
// It is safe to run repeatedly.
func Seed(ctx context.Context, db *gorm.DB, cfg config.SeedConfig, log *zap.Logger) error {
	for _, name := range DefaultCategories {
		var existing models.Category
		err := db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
		if err := db.WithContext(ctx).Create(&models.Category{Name: name}).Error; err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
		log.Info("seeded category", zap.String("name", name))
	}

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Info("admin credentials not configured, skipping admin user seed")
		return nil
	}
	user, err := models.NewUsersRepository(db).EnsureUser(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	log.Info("admin user ready", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	return nil
}
