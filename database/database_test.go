package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mytheresa/product-catalog/config"
	"github.com/mytheresa/product-catalog/models"
)

func sqliteConfig(t *testing.T) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:          DriverSQLite,
		DSN:             "file:" + t.Name() + "?mode=memory&cache=shared",
		ConnectAttempts: 1,
		MaxOpenConns:    4,
	}
}

func TestOpenAndMigrate(t *testing.T) {
	cfg := sqliteConfig(t)

	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, Migrate(db, cfg))
	require.NoError(t, Migrate(db, cfg), "migrating twice is a no-op")

	for _, table := range []string{"users", "access_tokens", "categories", "products"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s", table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Product{}, "idx_products_name_live"))
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: DriverSQLite}, zap.NewNop())
	assert.ErrorContains(t, err, "DSN is empty")

	_, err = Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")

	assert.ErrorContains(t, Migrate(nil, config.DatabaseConfig{Driver: "oracle"}), "unsupported database driver")
}

func TestSeed(t *testing.T) {
	cfg := sqliteConfig(t)
	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, AutoMigrate(db))

	seed := config.SeedConfig{
		Enabled:       true,
		AdminName:     "Admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "secret",
	}
	ctx := context.Background()
	require.NoError(t, Seed(ctx, db, seed, zap.NewNop()))
	require.NoError(t, Seed(ctx, db, seed, zap.NewNop()), "seeding is idempotent")

	var categories []models.Category
	require.NoError(t, db.Order("id").Find(&categories).Error)
	require.Len(t, categories, len(DefaultCategories))
	assert.Equal(t, DefaultCategories[0], categories[0].Name)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(1), users)

	user, err := models.NewUsersRepository(db).Authenticate(ctx, "admin@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Admin", user.Name)
}

func TestSeedWithoutAdmin(t *testing.T) {
	cfg := sqliteConfig(t)
	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, Seed(context.Background(), db, config.SeedConfig{Enabled: true}, zap.NewNop()))

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	assert.Contains(t, names, "000001_create_catalog.up.sql")
	assert.Contains(t, names, "000001_create_catalog.down.sql")
}
