package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kvateru/storefront/internal/domain/cart"
)

const (
	cartLinesSQL = `SELECT product_id, name, image, price, category, quantity
		FROM cart_lines WHERE user_id = $1 ORDER BY added_at, product_id`

	mergeCartLineSQL = `INSERT INTO cart_lines (user_id, product_id, name, image, price, category, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity`

	removeCartLinesSQL = `DELETE FROM cart_lines
		WHERE user_id = $1 AND product_id = ANY($2)`

	setCartQuantitySQL = `UPDATE cart_lines SET quantity = $3
		WHERE user_id = $1 AND product_id = $2`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Lines returns the user's cart in the order lines were first added.
func (r *CartRepository) Lines(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, cartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("loading cart for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// MergeAdd upserts the given lines inside one transaction. The quantity
// increment happens in the upsert statement itself, so concurrent merges for
// the same product both take effect.
func (r *CartRepository) MergeAdd(ctx context.Context, userID string, lines []cart.Line) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning cart transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(mergeCartLineSQL,
			userID, l.ProductID, l.Name, l.Image, l.Price, l.Category, l.Quantity,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("merging cart lines for user %q: %w", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing cart merge: %w", err)
	}
	return nil
}

// Remove deletes every line matching the given product IDs in one statement.
func (r *CartRepository) Remove(ctx context.Context, userID string, productIDs []string) (int64, error) {
	ct, err := r.pool.Exec(ctx, removeCartLinesSQL, userID, productIDs)
	if err != nil {
		return 0, fmt.Errorf("removing cart lines for user %q: %w", userID, err)
	}
	return ct.RowsAffected(), nil
}

// SetQuantity overwrites a line's quantity, reporting whether the line
// existed.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, productID string, quantity int) (bool, error) {
	ct, err := r.pool.Exec(ctx, setCartQuantitySQL, userID, productID, quantity)
	if err != nil {
		return false, fmt.Errorf("setting quantity for product %q: %w", productID, err)
	}
	return ct.RowsAffected() > 0, nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(&l.ProductID, &l.Name, &l.Image, &l.Price, &l.Category, &l.Quantity)
	return l, err
}
