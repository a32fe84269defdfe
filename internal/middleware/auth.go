package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/auth"
)

type identityKey struct{}

// IdentityFromContext returns the identity attached by Authorize.
func IdentityFromContext(ctx context.Context) (*auth.Identity, bool) {
	ident, ok := ctx.Value(identityKey{}).(*auth.Identity)
	return ident, ok
}

// openPaths are served without authentication.
var openPaths = map[string]struct{}{
	"/":                 {},
	"/health":           {},
	"/users/login":      {},
	"/users/register":   {},
	"/stocks/companies": {},
}

// docsPrefix covers the swagger UI and its assets.
const docsPrefix = "/swagger/"

// TokenVerifier validates a raw bearer token. *auth.TokenService
// satisfies it.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// Authorize validates the bearer token on every request except the
// allow-listed paths and CORS pre-flights, and injects the decoded
// identity into the request context.
func Authorize(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if _, open := openPaths[r.URL.Path]; open || strings.HasPrefix(r.URL.Path, docsPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			authz := r.Header.Get("Authorization")
			if authz == "" {
				reject(w, "missing authorization header", false)
				return
			}
			if !strings.HasPrefix(authz, "Bearer ") {
				reject(w, "invalid authorization header format", false)
				return
			}
			token := strings.TrimPrefix(authz, "Bearer ")
			if token == "" {
				reject(w, "empty token", false)
				return
			}

			ident, err := tokens.Verify(token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrExpired):
					reject(w, "token has expired", true)
				case errors.Is(err, auth.ErrInvalid):
					reject(w, "invalid token", true)
				default:
					reject(w, "authentication failed", true)
				}
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// reject short-circuits with a 401. Failures at the decode stage carry a
// re-authentication challenge.
func reject(w http.ResponseWriter, detail string, challenge bool) {
	if challenge {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	http.Error(w, `{"error":"`+detail+`"}`, http.StatusUnauthorized)
}
