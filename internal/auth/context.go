package auth

import (
	"context"
	"time"
)

type ctxKey struct{}

// Principal is the verified identity attached to an authenticated request.
type Principal struct {
	UserID    string
	Username  string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// WithPrincipal stores the principal on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFromContext returns the request principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}

// UserIDFromContext returns the principal's user id, or "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.UserID
}
