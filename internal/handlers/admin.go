package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	pkghttp "github.com/pawtraitstudio/pawtrait-api/pkg/http"
)

// AdminGateInterface defines the privileged authentication gate
type AdminGateInterface interface {
	Authenticate(ctx context.Context, ip, password, totpCode string) error
	RetryAfter(ip string) time.Duration
}

// SessionMinter issues admin session tokens after a successful login
type SessionMinter interface {
	Mint() (string, error)
}

// IPBlockAdminInterface exposes the ban list to admin endpoints
type IPBlockAdminInterface interface {
	ActiveBlocks(ctx context.Context, limit int) ([]*models.BlockedIP, error)
	Block(ctx context.Context, ip, reason string, durationMinutes int) error
}

// SecurityLogReader lists recent security events
type SecurityLogReader interface {
	RecentEvents(ctx context.Context, limit int) ([]*models.SecurityLogEntry, error)
}

// TOTPQRFunc renders the provisioning QR for the configured TOTP secret
type TOTPQRFunc func(secret, issuer, account string) (string, error)

// AdminHandler handles admin authentication and inspection endpoints
type AdminHandler struct {
	gate          AdminGateInterface
	sessions      SessionMinter
	ipBlocks      IPBlockAdminInterface
	securityLog   SecurityLogReader
	totpQR        TOTPQRFunc
	totpSecret    string
	sessionExpiry time.Duration
	ipConfig      *pkghttp.IPConfig
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	gate AdminGateInterface,
	sessions SessionMinter,
	ipBlocks IPBlockAdminInterface,
	securityLog SecurityLogReader,
	totpQR TOTPQRFunc,
	totpSecret string,
	sessionExpiry time.Duration,
	ipConfig *pkghttp.IPConfig,
) *AdminHandler {
	return &AdminHandler{
		gate:          gate,
		sessions:      sessions,
		ipBlocks:      ipBlocks,
		securityLog:   securityLog,
		totpQR:        totpQR,
		totpSecret:    totpSecret,
		sessionExpiry: sessionExpiry,
		ipConfig:      ipConfig,
	}
}

// AdminAuthRequest represents the request body for admin login
type AdminAuthRequest struct {
	Password string `json:"password" validate:"required"`
	TOTPCode string `json:"totp_code"`
}

// AdminAuthResponse carries the minted session token
type AdminAuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// Authenticate handles POST /admin/auth. The gate owns the ordering of
// block, throttle, and comparison checks; this handler only maps its
// sentinel errors onto status codes.
func (h *AdminHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req AdminAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)

	if err := h.gate.Authenticate(r.Context(), ip, req.Password, req.TOTPCode); err != nil {
		switch {
		case errors.Is(err, models.ErrNotConfigured):
			pkghttp.WriteInternalError(w, "Authentication unavailable")
		case errors.Is(err, models.ErrIPBlocked):
			pkghttp.WriteForbidden(w, "Access denied")
		case errors.Is(err, models.ErrRateLimited):
			w.Header().Set("Retry-After", strconv.Itoa(int(h.gate.RetryAfter(ip).Seconds())+1))
			pkghttp.WriteTooManyRequests(w, "Too many attempts, please try again later")
		default:
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
		}
		return
	}

	token, err := h.sessions.Mint()
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to create session")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, AdminAuthResponse{
		Token:     token,
		ExpiresIn: int(h.sessionExpiry.Seconds()),
	})
}

// TOTPQRResponse carries the provisioning QR as a PNG data URL
type TOTPQRResponse struct {
	QRCode string `json:"qr_code"`
}

// TOTPSetup handles GET /admin/totp/qr for one-time authenticator
// enrollment. Only reachable behind the admin middleware.
func (h *AdminHandler) TOTPSetup(w http.ResponseWriter, r *http.Request) {
	if h.totpSecret == "" {
		pkghttp.WriteNotFound(w, "TOTP not configured")
		return
	}

	qr, err := h.totpQR(h.totpSecret, "Pawtrait Studio", "admin")
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to generate QR code")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TOTPQRResponse{QRCode: qr})
}

// SecurityEventResponse is the JSON shape of one security log entry
type SecurityEventResponse struct {
	ID        string                 `json:"id"`
	EventType string                 `json:"event_type"`
	IPHash    string                 `json:"ip_hash"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// SecurityEvents handles GET /admin/security-events
func (h *AdminHandler) SecurityEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.securityLog.RecentEvents(r.Context(), limit)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to load security events")
		return
	}

	events := make([]SecurityEventResponse, 0, len(entries))
	for _, e := range entries {
		events = append(events, SecurityEventResponse{
			ID:        e.ID.String(),
			EventType: e.EventType,
			IPHash:    e.IPHash,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		})
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// BlockedIPResponse is the JSON shape of one active ban
type BlockedIPResponse struct {
	IPHash         string     `json:"ip_hash"`
	Reason         string     `json:"reason"`
	ViolationCount int        `json:"violation_count"`
	Permanent      bool       `json:"permanent"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// BlockedIPs handles GET /admin/blocked-ips
func (h *AdminHandler) BlockedIPs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	blocks, err := h.ipBlocks.ActiveBlocks(r.Context(), limit)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to load blocked IPs")
		return
	}

	out := make([]BlockedIPResponse, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, BlockedIPResponse{
			IPHash:         b.IPHash,
			Reason:         b.Reason,
			ViolationCount: b.ViolationCount,
			Permanent:      b.IsPermanent(),
			ExpiresAt:      b.ExpiresAt,
			CreatedAt:      b.CreatedAt,
		})
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"blocked_ips": out})
}

// BlockIPRequest represents the request body for a manual block
type BlockIPRequest struct {
	IP              string `json:"ip" validate:"required,ip"`
	Reason          string `json:"reason"`
	DurationMinutes int    `json:"duration_minutes"`
}

// BlockIP handles POST /admin/blocked-ips. Zero duration means permanent.
func (h *AdminHandler) BlockIP(w http.ResponseWriter, r *http.Request) {
	var req BlockIPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = models.BlockReasonManual
	}

	if err := h.ipBlocks.Block(r.Context(), req.IP, reason, req.DurationMinutes); err != nil {
		pkghttp.WriteInternalError(w, "Failed to record block")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, messageResponse{Message: "Block recorded"})
}
