// Package auth gates protected routes behind bearer tokens and serves the
// login and logout endpoints.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/app/metrics"
	"github.com/mytheresa/product-catalog/models"
)

// TokenValidator resolves a bearer token to its principal.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*models.User, error)
}

// Gate is the single authentication check placed in front of every route
// flagged as requiring auth. It answers 401 with the same body whether the
// token is missing, malformed or revoked.
type Gate struct {
	tokens TokenValidator
	log    *zap.Logger
}

func NewGate(tokens TokenValidator, log *zap.Logger) *Gate {
	return &Gate{tokens: tokens, log: log}
}

func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			metrics.AuthDenied("missing")
			api.Unauthenticated(w)
			return
		}

		user, err := g.tokens.Validate(r.Context(), token)
		if err != nil {
			if errors.Is(err, models.ErrInvalidToken) {
				metrics.AuthDenied("invalid")
				api.Unauthenticated(w)
				return
			}
			api.ServerError(w, r, g.log, "token validation failed", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, token)))
	})
}

// BearerToken extracts the credential from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
