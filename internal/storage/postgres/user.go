package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kvateru/storefront/internal/domain/user"
)

const upsertUserSQL = `INSERT INTO users (id, subject, email)
	VALUES ($1, $2, $3)
	ON CONFLICT (subject) DO UPDATE SET email = EXCLUDED.email
	RETURNING id, subject, email, created_at`

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert returns the user for the given subject, inserting a fresh record on
// first sight. The generated ID is only used when the subject is new; on
// conflict the existing row (with its original ID) is returned and the email
// refreshed.
func (r *UserRepository) Upsert(ctx context.Context, subject, email string) (*user.User, error) {
	var u user.User
	err := r.pool.QueryRow(ctx, upsertUserSQL, uuid.New().String(), subject, email).
		Scan(&u.ID, &u.Subject, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting user %q: %w", subject, err)
	}
	return &u, nil
}
