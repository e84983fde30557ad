// Package cart implements the per-user shopping cart: merge-adds, quantity
// updates, and removals, with product snapshots frozen at write time.
package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for cart validation.
var (
	// ErrEmptyItems is returned when a request carries no line items.
	ErrEmptyItems = errors.New("items required")
	// ErrNoMatchingProducts is returned when a removal matches no cart line.
	ErrNoMatchingProducts = errors.New("no matching products in cart")
	// ErrLineNotFound is returned when a quantity update targets a product
	// that is not in the cart.
	ErrLineNotFound = errors.New("product not in cart")
)

// InvalidQuantityError indicates a requested quantity below one.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for product %s, got %d", e.ProductID, e.Quantity)
}

// Item is a requested (product, quantity) pair before catalog resolution.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Line is a cart entry holding a denormalized product snapshot taken when
// the line was added. At most one line exists per product in a cart.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
}

// Repository defines persistence operations for carts. Implementations must
// make each operation atomic against concurrent requests for the same user.
type Repository interface {
	Lines(ctx context.Context, userID string) ([]Line, error)
	// MergeAdd upserts the given lines: an existing line for the same
	// product has its quantity incremented, otherwise the line is inserted.
	MergeAdd(ctx context.Context, userID string, lines []Line) error
	// Remove deletes every line whose product ID is in the set and reports
	// how many were removed.
	Remove(ctx context.Context, userID string, productIDs []string) (int64, error)
	// SetQuantity overwrites the quantity of one line, reporting whether the
	// line existed.
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (bool, error)
}
