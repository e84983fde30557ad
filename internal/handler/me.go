package handler

import (
	"net/http"
)

// me returns the authenticated user's profile, cart, and order history.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := userFromContext(ctx)

	lines, err := h.carts.Lines(ctx, u.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	orders, err := h.orders.List(ctx, u.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := meResponse{
		User:   userResponse{ID: u.ID, Email: u.Email},
		Cart:   cartToResponse(lines),
		Orders: make([]orderResponse, len(orders)),
	}
	for i, o := range orders {
		resp.Orders[i] = h.orderToResponse(o)
	}

	h.writeJSON(w, r, http.StatusOK, resp)
}

// listShippingOptions dumps the static shipping options.
func (h *Handler) listShippingOptions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, shippingToResponse(h.promos.ShippingOptions()))
}

// listCoupons dumps the static coupon table.
func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, couponsToResponse(h.promos.Coupons()))
}
