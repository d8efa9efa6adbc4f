package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/app/metrics"
	"github.com/mytheresa/product-catalog/app/validation"
	"github.com/mytheresa/product-catalog/models"
)

const tokenName = "api"

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type TokenIssuer interface {
	Issue(ctx context.Context, userID uint, name string) (string, error)
	Revoke(ctx context.Context, token string) error
}

type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

type AuthHandler struct {
	users  Authenticator
	tokens TokenIssuer
	log    *zap.Logger
}

func NewAuthHandler(users Authenticator, tokens TokenIssuer, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, log: log}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input validation.LoginInput
	if err := api.DecodeJSON(r, &input); err != nil {
		api.RejectBody(w, err)
		return
	}

	email, password, errs := validation.Login(input)
	if !errs.Empty() {
		api.ValidationFailed(w, errs)
		return
	}

	user, err := h.users.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			metrics.LoginFailed()
			api.Error(w, http.StatusUnauthorized, "These credentials do not match our records.")
			return
		}
		api.ServerError(w, r, h.log, "login failed", err)
		return
	}

	token, err := h.tokens.Issue(r.Context(), user.ID, tokenName)
	if err != nil {
		api.ServerError(w, r, h.log, "token issue failed", err)
		return
	}
	metrics.TokenIssued()
	h.log.Info("user logged in", zap.Uint("user_id", user.ID))

	api.JSON(w, http.StatusOK, LoginResponse{Token: token, TokenType: "Bearer"})
}

// HandleLogout revokes the token the request was authenticated with.
// It must sit behind the gate.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := TokenFromContext(r.Context())
	if !ok {
		api.Unauthenticated(w)
		return
	}
	if err := h.tokens.Revoke(r.Context(), token); err != nil {
		api.ServerError(w, r, h.log, "token revoke failed", err)
		return
	}
	metrics.TokenRevoked()
	if user, ok := UserFromContext(r.Context()); ok {
		h.log.Info("user logged out", zap.Uint("user_id", user.ID))
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}
