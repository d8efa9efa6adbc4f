package models

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testClock is a settable clock handed to gorm as NowFunc.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newTestDB returns an isolated in-memory sqlite store with the schema applied.
func newTestDB(t *testing.T) (*gorm.DB, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        clock.Now,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &AccessToken{}, &Category{}, &Product{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, clock
}

func seedCategories(t *testing.T, db *gorm.DB, names ...string) []Category {
	t.Helper()
	out := make([]Category, len(names))
	for i, name := range names {
		out[i] = Category{Name: name}
		require.NoError(t, db.Create(&out[i]).Error)
	}
	return out
}

func seedProduct(t *testing.T, db *gorm.DB, name string, categoryID uint, price string, description *string) Product {
	t.Helper()
	p := Product{Name: name, CategoryID: categoryID, Price: decimal.RequireFromString(price), Description: description}
	require.NoError(t, db.Omit("Category").Create(&p).Error)
	return p
}

func strPtr(s string) *string { return &s }
