package auth

import (
	"context"

	"github.com/mytheresa/product-catalog/models"
)

type ctxKey int

const (
	userCtxKey ctxKey = iota
	tokenCtxKey
)

// WithUser stores the authenticated principal and the token it presented.
func WithUser(ctx context.Context, user *models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userCtxKey, user)
	return context.WithValue(ctx, tokenCtxKey, token)
}

// UserFromContext returns the principal set by the gate.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userCtxKey).(*models.User)
	return u, ok && u != nil
}

// TokenFromContext returns the bearer token that authenticated the request.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenCtxKey).(string)
	return t, ok && t != ""
}
