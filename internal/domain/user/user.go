// Package user maps externally verified identities to persistent user
// records.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// User is a storefront customer. Subject is the external identity key (the
// verified token's subject claim) and is unique; email is informational and
// refreshed on every sighting.
type User struct {
	ID        string
	Subject   string
	Email     string
	CreatedAt time.Time
}

// Repository persists users keyed by their external subject.
type Repository interface {
	// Upsert returns the user for the given subject, creating one on first
	// sight. The operation is atomic: concurrent calls for the same subject
	// yield the same user.
	Upsert(ctx context.Context, subject, email string) (*User, error)
}

// Resolver turns a verified (subject, email) identity into a User, creating
// the record lazily on first authenticated request. Resolution is
// idempotent: the subject is the uniqueness key, not the email.
type Resolver struct {
	users Repository
}

// NewResolver creates a Resolver backed by the given repository.
func NewResolver(users Repository) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the persistent user for the verified identity.
func (r *Resolver) Resolve(ctx context.Context, subject, email string) (*User, error) {
	if subject == "" {
		return nil, errors.New("identity subject is empty")
	}

	u, err := r.users.Upsert(ctx, subject, email)
	if err != nil {
		return nil, errors.Wrap(err, "upsert user")
	}
	return u, nil
}
