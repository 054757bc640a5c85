package httpx

import (
	"net/http"
	"strings"

	"bookscan/internal/platform/crypto"
)

// AuthMiddleware verifies the identity provider's bearer token. The token
// subject becomes the user id every ledger operation is keyed by.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token", nil)
				return
			}

			claims, err := crypto.ParseToken(secret, strings.TrimSpace(raw))
			if err != nil || claims.Subject == "" {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), claims.Subject, claims.Role)))
		})
	}
}
