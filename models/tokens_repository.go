package models

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrInvalidToken is returned for empty, unknown and revoked tokens alike.
var ErrInvalidToken = errors.New("invalid token")

const tokenBytes = 32

// TokensRepository issues, validates and revokes opaque bearer tokens.
// Tokens carry no expiry; only Revoke ends their validity.
type TokensRepository struct {
	db *gorm.DB
}

func NewTokensRepository(db *gorm.DB) *TokensRepository {
	return &TokensRepository{db: db}
}

// Issue creates a new token for userID and returns its plain form.
func (r *TokensRepository) Issue(ctx context.Context, userID uint, name string) (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)

	record := AccessToken{UserID: userID, Name: name, TokenHash: digest(plain)}
	if err := r.db.WithContext(ctx).Omit("User").Create(&record).Error; err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return plain, nil
}

// Validate resolves a plain token to its user.
func (r *TokensRepository) Validate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	// Lookups go by digest, so query timing says nothing about the plain token.
	hash := digest(token)

	db := r.db.WithContext(ctx)
	var record AccessToken
	if err := db.Preload("User").Where("token_hash = ?", hash).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	if record.User.ID == 0 {
		return nil, ErrInvalidToken
	}

	if err := db.Model(&record).UpdateColumn("last_used_at", db.NowFunc()).Error; err != nil {
		return nil, fmt.Errorf("touch token: %w", err)
	}
	return &record.User, nil
}

// Revoke deletes the token. Unknown tokens are not an error.
func (r *TokensRepository) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("token_hash = ?", digest(token)).Delete(&AccessToken{}).Error; err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
