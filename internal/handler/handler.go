// Package handler exposes the storefront HTTP API and its authentication
// middleware.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kvateru/storefront/internal/domain/cart"
	"github.com/kvateru/storefront/internal/domain/order"
	"github.com/kvateru/storefront/internal/domain/promo"
	"github.com/kvateru/storefront/internal/domain/user"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// BasePath is the public path prefix the API is mounted under; it is
	// used to derive review image URLs in responses.
	BasePath string
	// AuthSecret is the HMAC secret shared with the identity provider.
	AuthSecret []byte
}

// Handler serves the storefront API, delegating business logic to the
// domain services.
type Handler struct {
	users    *user.Resolver
	carts    *cart.Service
	orders   *order.Service
	promos   promo.Lookup
	basePath string
	secret   []byte
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	users *user.Resolver,
	carts *cart.Service,
	orders *order.Service,
	promos promo.Lookup,
) *Handler {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	return &Handler{
		users:    users,
		carts:    carts,
		orders:   orders,
		promos:   promos,
		basePath: basePath,
		secret:   cfg.AuthSecret,
	}
}

// Routes builds the API router. Promotion dumps are public; everything else
// requires a verified identity.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/shipping-options", h.listShippingOptions)
	r.Get("/coupons", h.listCoupons)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/me", h.me)

		r.Post("/cart", h.addToCart)
		r.Delete("/cart", h.removeFromCart)
		r.Put("/cart/{productID}", h.setCartQuantity)

		r.Post("/order", h.createOrder)
		r.Put("/order/{orderID}", h.editOrder)
		r.Delete("/order/{orderID}", h.deleteOrder)

		r.Post("/order/{orderID}/review", h.addReview)
		r.Delete("/order/{orderID}/review", h.deleteReview)
		r.Get("/order/{orderID}/review/image/{index}", h.reviewImage)
	})

	return r
}

// errorBody is the JSON error envelope shared by all endpoints.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Error("encode response", zap.Error(err))
	}
}

func (h *Handler) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, r, status, errorBody{Code: status, Message: message})
}
