package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kvateru/storefront/internal/domain/user"
)

// identityKey is the context key for the resolved user.
type identityKey struct{}

// identityClaims are the token claims the storefront cares about: the
// subject (external identity key) plus the email.
type identityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// authenticate verifies the bearer token, resolves the identity to a
// persistent user (creating one on first sight), and stores the user in the
// request context. Requests without a valid token are rejected with 401.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			h.writeErrorStatus(w, r, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		claims := &identityClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return h.secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			h.writeErrorStatus(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		u, err := h.users.Resolve(r.Context(), claims.Subject, claims.Email)
		if err != nil {
			zctx.From(r.Context()).Error("resolve identity", zap.Error(err))
			h.writeErrorStatus(w, r, http.StatusInternalServerError, "could not resolve identity")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUserID returns the resolved user's ID. The auth middleware
// guarantees presence on every route that reaches a handler.
func currentUserID(ctx context.Context) string {
	u := userFromContext(ctx)
	if u == nil {
		return ""
	}
	return u.ID
}

func userFromContext(ctx context.Context) *user.User {
	if u, ok := ctx.Value(identityKey{}).(*user.User); ok {
		return u
	}
	return nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("no authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("not a bearer token")
	}
	return strings.TrimSpace(parts[1]), nil
}
