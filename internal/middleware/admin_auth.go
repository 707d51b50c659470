package middleware

import (
	"net/http"
	"strings"

	pkghttp "github.com/pawtraitstudio/pawtrait-api/pkg/http"
)

// SharedSecretVerifier validates the static admin secret header
type SharedSecretVerifier interface {
	VerifySharedSecret(candidate string) bool
}

// SessionVerifier validates minted admin session tokens
type SessionVerifier interface {
	Verify(token string) error
}

// RequireAdmin guards admin endpoints. Accepts either a Bearer session
// token from a prior login or the X-Admin-Secret header, so scripted
// callers do not need the login flow.
func RequireAdmin(secrets SharedSecretVerifier, sessions SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
				token := strings.TrimPrefix(authz, "Bearer ")
				if sessions.Verify(token) == nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			if secret := r.Header.Get("X-Admin-Secret"); secret != "" && secrets.VerifySharedSecret(secret) {
				next.ServeHTTP(w, r)
				return
			}

			pkghttp.WriteUnauthorized(w, "Unauthorized")
		})
	}
}
