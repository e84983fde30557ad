package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kvateru/storefront/internal/domain/cart"
	"github.com/kvateru/storefront/internal/domain/catalog"
	"github.com/kvateru/storefront/internal/domain/order"
	"github.com/kvateru/storefront/internal/domain/promo"
)

// writeError maps a domain error onto the HTTP error taxonomy: malformed
// input 400, semantic validation failures 422, unknown entities 404,
// review conflicts 409, everything else a logged 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		cartQtyErr  *cart.InvalidQuantityError
		orderQtyErr *order.InvalidQuantityError
		productErr  *catalog.NotFoundError
	)

	switch {
	case errors.Is(err, cart.ErrEmptyItems), errors.Is(err, order.ErrEmptyItems):
		h.writeErrorStatus(w, r, http.StatusBadRequest, err.Error())

	case errors.As(err, &cartQtyErr),
		errors.As(err, &orderQtyErr),
		errors.As(err, &productErr),
		errors.Is(err, promo.ErrUnknownShipping),
		errors.Is(err, order.ErrInvalidRating),
		errors.Is(err, order.ErrTooManyImages):
		h.writeErrorStatus(w, r, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrReviewNotFound),
		errors.Is(err, order.ErrImageNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, cart.ErrNoMatchingProducts):
		h.writeErrorStatus(w, r, http.StatusNotFound, err.Error())

	case errors.Is(err, order.ErrAlreadyReviewed):
		h.writeErrorStatus(w, r, http.StatusConflict, err.Error())

	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		h.writeErrorStatus(w, r, http.StatusInternalServerError, "internal server error")
	}
}
