package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ayush/potty-buddy/backend/internal/httpx"
)

// RequireAdminToken guards administrative routes with a static bearer token.
// An empty token leaves the route open.
func RequireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				httpx.WriteMessage(w, http.StatusUnauthorized, "Admin token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
