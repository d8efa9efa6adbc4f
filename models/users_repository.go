package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
// The two cases are deliberately indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid credentials")

type UsersRepository struct {
	db   *gorm.DB
	cost int
}

func NewUsersRepository(db *gorm.DB) *UsersRepository {
	return &UsersRepository{db: db, cost: bcrypt.DefaultCost}
}

// WithCost returns a copy hashing new passwords at the given bcrypt cost.
// Tests use bcrypt.MinCost to stay fast.
func (r *UsersRepository) WithCost(cost int) *UsersRepository {
	return &UsersRepository{db: r.db, cost: cost}
}

// CreateUser hashes password and stores the user.
func (r *UsersRepository) CreateUser(ctx context.Context, name, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &User{Name: name, Email: normalizeEmail(email), Password: string(hash)}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// EnsureUser creates the user unless one with the same email already exists.
func (r *UsersRepository) EnsureUser(ctx context.Context, name, email, password string) (*User, error) {
	var existing User
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return r.CreateUser(ctx, name, email, password)
}

// Authenticate checks the email/password pair against the stored bcrypt hash.
func (r *UsersRepository) Authenticate(ctx context.Context, email, password string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
