package api

import (
	"log"
	"net/http"
	"strings"

	"healthchat-backend/internal/auth"
	"healthchat-backend/pkg/httputil"
)

// BearerAuthMiddleware verifies the bearer credential on every request and
// injects the verified identity into the request context. Verification
// failure is terminal for the request; there is no partial processing.
//
// Note this only authenticates. The role checks happen later, per
// operation, against the profile store - never against token claims.
func BearerAuthMiddleware(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				httputil.RespondError(w, http.StatusUnauthorized, "Malformed Authorization header (Expected: Bearer <token>)")
				return
			}

			identity, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				log.Printf("Auth Middleware: token rejected: %v", err)
				httputil.RespondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := auth.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
