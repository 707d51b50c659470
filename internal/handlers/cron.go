package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	"github.com/pawtraitstudio/pawtrait-api/internal/services"
	pkghttp "github.com/pawtraitstudio/pawtrait-api/pkg/http"
)

// CartScanner runs one abandoned-cart reminder pass
type CartScanner interface {
	Scan(ctx context.Context) (*services.ScanSummary, error)
}

// CronHandler handles scheduler-triggered endpoints. These are called by
// an external cron service, never by browsers, and authenticate with a
// bearer shared secret.
type CronHandler struct {
	scanner CartScanner
	secret  string
}

// NewCronHandler creates a new CronHandler
func NewCronHandler(scanner CartScanner, secret string) *CronHandler {
	return &CronHandler{
		scanner: scanner,
		secret:  secret,
	}
}

// AbandonedCartScan handles POST /cron/abandoned-carts. Any secret
// mismatch, absence, or unconfigured secret is an unconditional 401.
func (h *CronHandler) AbandonedCartScan(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	summary, err := h.scanner.Scan(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrScanInProgress) {
			pkghttp.WriteConflict(w, "Scan already in progress")
			return
		}
		pkghttp.WriteInternalError(w, "Scan failed")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, summary)
}

// authorized compares the bearer token against the configured secret.
// Same discipline as the admin gate: length first, then constant-time.
func (h *CronHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return false
	}

	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return false
	}

	candidate := []byte(strings.TrimPrefix(authz, "Bearer "))
	secret := []byte(h.secret)
	if len(candidate) != len(secret) {
		return false
	}
	return subtle.ConstantTimeCompare(candidate, secret) == 1
}
