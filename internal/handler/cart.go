package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kvateru/storefront/internal/domain/cart"
)

type addToCartRequest struct {
	Items []cart.Item `json:"items"`
}

type removeFromCartRequest struct {
	ProductIDs []string `json:"productIds"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// addToCart merges the requested items into the cart and returns the
// updated cart.
func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorStatus(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	lines, err := h.carts.AddOrMerge(r.Context(), currentUserID(r.Context()), req.Items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, cartToResponse(lines))
}

// removeFromCart deletes the listed products from the cart and reports how
// many lines were removed.
func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	var req removeFromCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorStatus(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	removed, err := h.carts.Remove(r.Context(), currentUserID(r.Context()), req.ProductIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]int64{"removed": removed})
}

// setCartQuantity overwrites the quantity of one cart line.
func (h *Handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorStatus(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := h.carts.SetQuantity(r.Context(), currentUserID(r.Context()), productID, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"productId": productID,
		"quantity":  req.Quantity,
	})
}
