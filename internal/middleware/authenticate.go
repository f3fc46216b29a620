package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/logging"
)

// AccessTokenCookie is the cookie that carries the access token for browser clients.
const AccessTokenCookie = "accessToken"

// Authenticator verifies access tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (auth.Principal, error)
}

// Authenticate attaches the principal of a valid access token to the request
// context. Requests without a token, or with an invalid one, continue
// anonymously and the services decide whether that is acceptable.
func Authenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" || a == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			principal, err := a.Authenticate(ctx, token)
			if err != nil {
				logging.FromContext(ctx).Warn("access token rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx = logging.With(auth.WithPrincipal(ctx, principal), "user_id", principal.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
