// Package order implements the order lifecycle: pricing, creation, in-place
// edits, deletion, and the optional per-order review with image blobs.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order operations.
var (
	// ErrEmptyItems is returned when an order request carries no line items.
	ErrEmptyItems = errors.New("items required")
	// ErrNotFound is returned when an order ID does not exist for the user.
	ErrNotFound = errors.New("order not found")
	// ErrReviewNotFound is returned when an order has no review to operate on.
	ErrReviewNotFound = errors.New("review not found")
	// ErrImageNotFound is returned when a review image index is out of bounds.
	ErrImageNotFound = errors.New("review image not found")
	// ErrAlreadyReviewed is returned when an order already carries a review.
	// The existing review must be deleted before a new one can be added.
	ErrAlreadyReviewed = errors.New("order already reviewed")
	// ErrInvalidRating is returned when a rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be an integer between 1 and 5")
	// ErrTooManyImages is returned when a review exceeds the image limit.
	ErrTooManyImages = errors.New("review accepts at most 5 images")
)

// MaxReviewImages bounds the number of image blobs per review.
const MaxReviewImages = 5

// InvalidQuantityError indicates an order line with a quantity below one.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for product %s, got %d", e.ProductID, e.Quantity)
}

// Item is a requested (product, quantity) pair before pricing.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Line is an order line item with the product snapshot frozen at the time
// the order was created or last edited. Later catalog changes never alter
// existing orders.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
}

// CouponSnapshot records the coupon applied to an order: code plus the
// discount amount in effect at pricing time. A nil snapshot means no coupon.
type CouponSnapshot struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// Review is customer feedback attached to an order. Image blobs are stored
// separately; ImageCount reports how many exist.
type Review struct {
	Comment    string
	Rating     int
	ImageCount int
}

// Order is a priced, persisted order. Lines, shipping, coupon, and total are
// frozen at creation and only change through an explicit edit, which
// re-prices from scratch.
type Order struct {
	ID             string
	Lines          []Line
	ShippingMethod string
	ShippingFee    decimal.Decimal
	Coupon         *CouponSnapshot
	Total          decimal.Decimal
	CreatedAt      time.Time
	Review         *Review
}

// Repository defines persistence operations for orders and their reviews.
// Implementations must make each operation atomic against concurrent
// requests for the same user.
type Repository interface {
	// Create persists a new order and, in the same transaction, removes the
	// listed products from the user's cart.
	Create(ctx context.Context, userID string, o *Order, clearProducts []string) error
	// List returns the user's orders in creation order, reviews included
	// (without image bytes).
	List(ctx context.Context, userID string) ([]Order, error)
	// Update overwrites an order's priced fields in place, leaving its
	// review untouched. It reports whether the order existed.
	Update(ctx context.Context, userID string, o *Order) (bool, error)
	// Delete removes an order and its review, reporting whether it existed.
	Delete(ctx context.Context, userID, orderID string) (bool, error)

	// CreateReview attaches a review to an order. It returns ErrNotFound
	// when the order does not exist and ErrAlreadyReviewed when a review is
	// already present.
	CreateReview(ctx context.Context, userID, orderID, comment string, rating int, images [][]byte) error
	// DeleteReview removes an order's review and images, reporting whether
	// a review existed.
	DeleteReview(ctx context.Context, userID, orderID string) (bool, error)
	// ReviewImage returns the raw bytes of one review image. It returns
	// ErrImageNotFound when the order, review, or index does not resolve.
	ReviewImage(ctx context.Context, userID, orderID string, index int) ([]byte, error)
}
