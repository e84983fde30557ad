package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kvateru/storefront/internal/domain/order"
)

// orderIDParam extracts the order ID path segment and validates its shape.
// Order IDs are UUIDs, so anything else cannot name an order and is reported
// as not found without touching storage. The storage layer binds the ID to a
// uuid column and would otherwise reject the malformed value at the driver
// level.
func (h *Handler) orderIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "orderID")
	if _, err := uuid.Parse(id); err != nil {
		h.writeError(w, r, order.ErrNotFound)
		return "", false
	}
	return id, true
}

type orderRequest struct {
	Items      []order.Item `json:"items"`
	CouponID   string       `json:"couponId"`
	ShippingID string       `json:"shippingId"`
}

// createOrder prices the requested items and persists a new order. The
// ordered products are removed from the cart in the same transaction.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorStatus(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	o, err := h.orders.Create(r.Context(), currentUserID(r.Context()), req.Items, req.CouponID, req.ShippingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, h.orderToResponse(*o))
}

// editOrder re-prices an existing order from scratch and overwrites it in
// place. The review is untouched.
func (h *Handler) editOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDParam(w, r)
	if !ok {
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorStatus(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	o, err := h.orders.Edit(r.Context(), currentUserID(r.Context()), orderID, req.Items, req.CouponID, req.ShippingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, h.orderToResponse(*o))
}

// deleteOrder removes an order together with its review.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDParam(w, r)
	if !ok {
		return
	}

	if err := h.orders.Delete(r.Context(), currentUserID(r.Context()), orderID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
