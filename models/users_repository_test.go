package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUsersRepository_Authenticate(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewUsersRepository(db).WithCost(bcrypt.MinCost)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "Admin", "  Admin@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", created.Email)
	assert.NotEqual(t, "correct horse", created.Password, "password must be hashed")

	testCases := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "Valid credentials", email: "admin@example.com", password: "correct horse"},
		{name: "Email is matched case-insensitively", email: "ADMIN@example.com", password: "correct horse"},
		{name: "Wrong password", email: "admin@example.com", password: "battery staple", wantErr: ErrInvalidCredentials},
		{name: "Unknown email", email: "nobody@example.com", password: "correct horse", wantErr: ErrInvalidCredentials},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			user, err := repo.Authenticate(ctx, tc.email, tc.password)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, created.ID, user.ID)
		})
	}
}

func TestUsersRepository_EnsureUser(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewUsersRepository(db).WithCost(bcrypt.MinCost)
	ctx := context.Background()

	first, err := repo.EnsureUser(ctx, "Admin", "admin@example.com", "one")
	require.NoError(t, err)
	second, err := repo.EnsureUser(ctx, "Admin", "admin@example.com", "two")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	var count int64
	require.NoError(t, db.Model(&User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The original password is kept.
	_, err = repo.Authenticate(ctx, "admin@example.com", "one")
	assert.NoError(t, err)
}

func TestCategoriesRepository(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewCategoriesRepository(db)
	ctx := context.Background()

	all, err := repo.GetAllCategories(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	for _, name := range []string{"Laptops", "Audio"} {
		require.NoError(t, repo.CreateCategory(ctx, &Category{Name: name}))
	}

	all, err = repo.GetAllCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Laptops", all[0].Name)

	exists, err := repo.CategoryExists(ctx, all[1].ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.CategoryExists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := repo.GetByID(ctx, all[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Audio", got.Name)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
