package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service encapsulates order lifecycle business logic on top of the pricing
// quoter and the repository.
type Service struct {
	quoter *Quoter
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service.
func NewService(quoter *Quoter, orders Repository) *Service {
	return &Service{
		quoter: quoter,
		orders: orders,
		now:    time.Now,
	}
}

// List returns the user's orders in creation order.
func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.orders.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Create prices the requested items, persists a new order, and strips the
// just-ordered products from the user's cart in the same transaction. The
// whole carted line is removed regardless of the quantity ordered.
func (s *Service) Create(ctx context.Context, userID string, items []Item, couponID, shippingID string) (*Order, error) {
	quote, err := s.quoter.Quote(items, couponID, shippingID)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:             uuid.New().String(),
		Lines:          quote.Lines,
		ShippingMethod: quote.ShippingMethod,
		ShippingFee:    quote.ShippingFee,
		Coupon:         quote.Coupon,
		Total:          quote.Total,
		CreatedAt:      s.now().UTC(),
	}

	clearProducts := make([]string, len(quote.Lines))
	for i, line := range quote.Lines {
		clearProducts[i] = line.ProductID
	}

	if err := s.orders.Create(ctx, userID, o, clearProducts); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Edit re-prices the order from scratch and overwrites its lines, shipping,
// coupon, total, and creation timestamp in place. A shipping method is
// required on every edit; an empty or unknown shippingID is rejected, it
// does not clear the stored method. A coupon that no longer resolves is
// cleared rather than left stale. The order's review, if any, is untouched.
func (s *Service) Edit(ctx context.Context, userID, orderID string, items []Item, couponID, shippingID string) (*Order, error) {
	quote, err := s.quoter.Quote(items, couponID, shippingID)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:             orderID,
		Lines:          quote.Lines,
		ShippingMethod: quote.ShippingMethod,
		ShippingFee:    quote.ShippingFee,
		Coupon:         quote.Coupon,
		Total:          quote.Total,
		CreatedAt:      s.now().UTC(),
	}

	found, err := s.orders.Update(ctx, userID, o)
	if err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	if !found {
		return nil, ErrNotFound
	}
	return o, nil
}

// Delete removes an order together with its review and images.
func (s *Service) Delete(ctx context.Context, userID, orderID string) error {
	found, err := s.orders.Delete(ctx, userID, orderID)
	if err != nil {
		return errors.Wrap(err, "delete order")
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// AddReview attaches a review to an order. An order carries at most one
// review; an existing one must be deleted before a new one can be added.
func (s *Service) AddReview(ctx context.Context, userID, orderID, comment string, rating int, images [][]byte) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	if len(images) > MaxReviewImages {
		return ErrTooManyImages
	}

	if err := s.orders.CreateReview(ctx, userID, orderID, comment, rating, images); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyReviewed) {
			return err
		}
		return errors.Wrap(err, "create review")
	}
	return nil
}

// DeleteReview removes an order's review and its images.
func (s *Service) DeleteReview(ctx context.Context, userID, orderID string) error {
	found, err := s.orders.DeleteReview(ctx, userID, orderID)
	if err != nil {
		return errors.Wrap(err, "delete review")
	}
	if !found {
		return ErrReviewNotFound
	}
	return nil
}

// ReviewImage returns the raw bytes of the review image at the given index.
func (s *Service) ReviewImage(ctx context.Context, userID, orderID string, index int) ([]byte, error) {
	if index < 0 {
		return nil, ErrImageNotFound
	}
	data, err := s.orders.ReviewImage(ctx, userID, orderID, index)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "load review image")
	}
	return data, nil
}
