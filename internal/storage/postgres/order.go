package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kvateru/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, lines, shipping_method, shipping_fee, coupon_code, coupon_discount, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	listOrdersSQL = `SELECT o.id, o.lines, o.shipping_method, o.shipping_fee, o.coupon_code, o.coupon_discount, o.total, o.created_at,
			r.comment, r.rating,
			(SELECT COUNT(*) FROM review_images ri WHERE ri.order_id = o.id)
		FROM orders o
		LEFT JOIN reviews r ON r.order_id = o.id
		WHERE o.user_id = $1
		ORDER BY o.created_at, o.id`

	updateOrderSQL = `UPDATE orders
		SET lines = $3, shipping_method = $4, shipping_fee = $5, coupon_code = $6, coupon_discount = $7, total = $8, created_at = $9
		WHERE user_id = $1 AND id = $2`

	deleteOrderSQL = `DELETE FROM orders WHERE user_id = $1 AND id = $2`

	orderExistsSQL = `SELECT 1 FROM orders WHERE user_id = $1 AND id = $2`

	createReviewSQL = `INSERT INTO reviews (order_id, comment, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO NOTHING`

	createReviewImageSQL = `INSERT INTO review_images (order_id, idx, data)
		VALUES ($1, $2, $3)`

	deleteReviewSQL = `DELETE FROM reviews
		WHERE order_id IN (SELECT id FROM orders WHERE user_id = $1 AND id = $2)`

	reviewImageSQL = `SELECT ri.data
		FROM review_images ri
		JOIN orders o ON o.id = ri.order_id
		WHERE o.user_id = $1 AND ri.order_id = $2 AND ri.idx = $3`

	clearCartLinesSQL = `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = ANY($2)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Order
// lines are serialized to JSON for storage in the JSONB column; the coupon
// snapshot maps to a pair of nullable columns (NULL means no coupon).
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order and strips the listed products from the user's
// cart in the same transaction.
func (r *OrderRepository) Create(ctx context.Context, userID string, o *order.Order, clearProducts []string) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}
	code, discount := couponColumns(o.Coupon)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, userID, linesJSON, o.ShippingMethod, o.ShippingFee, code, discount, o.Total, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	if len(clearProducts) > 0 {
		if _, err := tx.Exec(ctx, clearCartLinesSQL, userID, clearProducts); err != nil {
			return fmt.Errorf("clearing ordered cart lines: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// List returns the user's orders in creation order, including review
// metadata but not image bytes.
func (r *OrderRepository) List(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Update overwrites an order's priced fields, leaving its review rows alone.
func (r *OrderRepository) Update(ctx context.Context, userID string, o *order.Order) (bool, error) {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return false, fmt.Errorf("marshaling order lines: %w", err)
	}
	code, discount := couponColumns(o.Coupon)

	ct, err := r.pool.Exec(ctx, updateOrderSQL,
		userID, o.ID, linesJSON, o.ShippingMethod, o.ShippingFee, code, discount, o.Total, o.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// Delete removes an order; its review and images go with it via cascade.
func (r *OrderRepository) Delete(ctx context.Context, userID, orderID string) (bool, error) {
	ct, err := r.pool.Exec(ctx, deleteOrderSQL, userID, orderID)
	if err != nil {
		return false, fmt.Errorf("deleting order %q: %w", orderID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// CreateReview attaches a review and its images to an order in one
// transaction. The guarded insert makes the at-most-one-review invariant
// hold even for concurrent requests.
func (r *OrderRepository) CreateReview(ctx context.Context, userID, orderID, comment string, rating int, images [][]byte) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning review transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var one int
	if err := tx.QueryRow(ctx, orderExistsSQL, userID, orderID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrNotFound
		}
		return fmt.Errorf("checking order %q: %w", orderID, err)
	}

	ct, err := tx.Exec(ctx, createReviewSQL, orderID, comment, rating)
	if err != nil {
		return fmt.Errorf("creating review for order %q: %w", orderID, err)
	}
	if ct.RowsAffected() == 0 {
		return order.ErrAlreadyReviewed
	}

	for i, img := range images {
		if _, err := tx.Exec(ctx, createReviewImageSQL, orderID, i, img); err != nil {
			return fmt.Errorf("storing review image %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing review for order %q: %w", orderID, err)
	}
	return nil
}

// DeleteReview removes an order's review; images cascade.
func (r *OrderRepository) DeleteReview(ctx context.Context, userID, orderID string) (bool, error) {
	ct, err := r.pool.Exec(ctx, deleteReviewSQL, userID, orderID)
	if err != nil {
		return false, fmt.Errorf("deleting review for order %q: %w", orderID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// ReviewImage returns the raw bytes of one review image.
func (r *OrderRepository) ReviewImage(ctx context.Context, userID, orderID string, index int) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, reviewImageSQL, userID, orderID, index).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrImageNotFound
		}
		return nil, fmt.Errorf("loading review image %d for order %q: %w", index, orderID, err)
	}
	return data, nil
}

func couponColumns(c *order.CouponSnapshot) (*string, *decimal.Decimal) {
	if c == nil {
		return nil, nil
	}
	return &c.Code, &c.Discount
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o          order.Order
		linesJSON  []byte
		code       *string
		discount   *decimal.Decimal
		comment    *string
		rating     *int
		imageCount int
	)
	err := row.Scan(
		&o.ID, &linesJSON, &o.ShippingMethod, &o.ShippingFee,
		&code, &discount, &o.Total, &o.CreatedAt,
		&comment, &rating, &imageCount,
	)
	if err != nil {
		return order.Order{}, err
	}

	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	if code != nil && discount != nil {
		o.Coupon = &order.CouponSnapshot{Code: *code, Discount: *discount}
	}
	if rating != nil {
		r := order.Review{Rating: *rating, ImageCount: imageCount}
		if comment != nil {
			r.Comment = *comment
		}
		o.Review = &r
	}
	return o, nil
}
