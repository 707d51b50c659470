package middleware

import (
	"context"
	"net/http"

	pkghttp "github.com/pawtraitstudio/pawtrait-api/pkg/http"
)

// IPBlocker is the gate checked before any other work happens
type IPBlocker interface {
	IsBlocked(ctx context.Context, ip string) bool
}

// BlockGate rejects requests from blocked IPs with 403 before the request
// reaches rate limiting or business logic.
func BlockGate(blocker IPBlocker, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := pkghttp.ExtractClientIP(r, ipConfig)
			if blocker.IsBlocked(r.Context(), ip) {
				pkghttp.WriteForbidden(w, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
