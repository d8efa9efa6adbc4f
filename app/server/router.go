// Package server assembles the HTTP router from an explicit route table.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/app/auth"
	"github.com/mytheresa/product-catalog/app/catalog"
	"github.com/mytheresa/product-catalog/app/categories"
	"github.com/mytheresa/product-catalog/app/metrics"
	"github.com/mytheresa/product-catalog/app/middleware"
	"github.com/mytheresa/product-catalog/app/validation"
	"github.com/mytheresa/product-catalog/config"
	"github.com/mytheresa/product-catalog/models"
)

// APIPrefix is where the JSON API is mounted.
const APIPrefix = "/api"

// Route describes one API endpoint. RequiresAuth routes are wrapped by the
// auth gate before anything else in the route runs.
type Route struct {
	Method       string
	Pattern      string
	RequiresAuth bool
	Handler      http.HandlerFunc
	Middlewares  []func(http.Handler) http.Handler
}

// Handlers groups the endpoint handlers the route table points at.
type Handlers struct {
	Catalog    *catalog.CatalogHandler
	Categories *categories.CategoryHandler
	Auth       *auth.AuthHandler
	Throttle   *middleware.Throttle
}

// Routes returns the API route table.
func Routes(h Handlers) []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/products", Handler: h.Catalog.HandleGet},
		{Method: http.MethodPost, Pattern: "/products", RequiresAuth: true, Handler: h.Catalog.HandleCreate},
		{Method: http.MethodGet, Pattern: "/products/{id}", Handler: h.Catalog.HandleGetProduct},
		{Method: http.MethodPut, Pattern: "/products/{id}", RequiresAuth: true, Handler: h.Catalog.HandleUpdate},
		{Method: http.MethodPatch, Pattern: "/products/{id}", RequiresAuth: true, Handler: h.Catalog.HandleUpdate},
		{Method: http.MethodDelete, Pattern: "/products/{id}", RequiresAuth: true, Handler: h.Catalog.HandleDelete},

		{Method: http.MethodGet, Pattern: "/categories", Handler: h.Categories.HandleGetAll},
		{Method: http.MethodPost, Pattern: "/categories", RequiresAuth: true, Handler: h.Categories.HandleCreate},

		{Method: http.MethodPost, Pattern: "/login", Handler: h.Auth.HandleLogin, Middlewares: []func(http.Handler) http.Handler{h.Throttle.Handler}},
		{Method: http.MethodPost, Pattern: "/logout", RequiresAuth: true, Handler: h.Auth.HandleLogout},
	}
}

// New wires repositories, handlers and middleware over db.
func New(db *gorm.DB, cfg *config.Config, log *zap.Logger) http.Handler {
	productsRepo := models.NewProductsRepository(db)
	categoriesRepo := models.NewCategoriesRepository(db)
	tokensRepo := models.NewTokensRepository(db)
	usersRepo := models.NewUsersRepository(db)

	handlers := Handlers{
		Catalog:    catalog.NewCatalogHandler(productsRepo, validation.NewProductRules(productsRepo, categoriesRepo), log),
		Categories: categories.NewCategoryHandler(categoriesRepo, log),
		Auth:       auth.NewAuthHandler(usersRepo, tokensRepo, log),
		Throttle:   middleware.NewThrottle(cfg.Auth.LoginAttemptsPerMinute),
	}
	gate := auth.NewGate(tokensRepo, log)
	trusted, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		log.Warn("ignoring trusted proxies", zap.Error(err))
		trusted = nil
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RealIP(trusted))
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", NewHealthHandler(db, log).ServeHTTP)
	r.Handle("/metrics", metrics.Handler())

	r.Route(APIPrefix, func(r chi.Router) {
		for _, route := range Routes(handlers) {
			r.Method(route.Method, route.Pattern, wrap(route, gate))
		}
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		api.Error(w, http.StatusNotFound, "Not Found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		api.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed.")
	})

	return r
}

// wrap applies the route's middlewares, then the gate outermost so an
// unauthenticated request never reaches them.
func wrap(route Route, gate *auth.Gate) http.Handler {
	var h http.Handler = route.Handler
	for i := len(route.Middlewares) - 1; i >= 0; i-- {
		h = route.Middlewares[i](h)
	}
	if route.RequiresAuth {
		h = gate.Require(h)
	}
	return h
}
