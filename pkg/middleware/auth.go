// Package middleware provides the HTTP middleware that authenticates
// requests and attaches request-scoped data to the context.
package middleware

import (
	"net/http"
	"strings"

	"github.com/platinummonkey/taskhive/pkg/auth"
	"github.com/platinummonkey/taskhive/pkg/contextkeys"
	"github.com/platinummonkey/taskhive/pkg/httputil"
)

// AuthMiddleware resolves bearer tokens to user ids.
type AuthMiddleware struct {
	tokens *auth.Store
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens *auth.Store) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handler wraps an HTTP handler with authentication. Requests without a
// valid "Authorization: Bearer <token>" header are rejected; on success the
// authenticated user id is placed in the request context.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		userID, err := m.tokens.Authenticate(r.Context(), parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := contextkeys.WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
