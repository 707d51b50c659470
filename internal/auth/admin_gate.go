package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	pkglogger "github.com/pawtraitstudio/pawtrait-api/pkg/logger"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// IPBlockGate is the subset of the IP block service the gate depends on
type IPBlockGate interface {
	IsBlocked(ctx context.Context, ip string) bool
	BlockWithDefaultDuration(ctx context.Context, ip, reason string) error
}

// SecurityRecorder appends security events
type SecurityRecorder interface {
	Record(ctx context.Context, eventType, ipHash string, fingerprint *string, details models.SecurityDetails)
}

// IPHasher produces the stored digest of an IP
type IPHasher interface {
	Hash(ip string) string
}

// AdminGateConfig holds the secrets the gate compares against
type AdminGateConfig struct {
	Password     string // plain shared secret, compared timing-safe
	PasswordHash string // optional bcrypt hash; takes precedence
	TOTPSecret   string // optional second factor
}

// AdminGate authenticates privileged requests. Checks compose in order:
// IP block, attempt throttle, then the password comparison. Blocked or
// throttled clients never reach the comparison at all.
type AdminGate struct {
	config      AdminGateConfig
	blocks      IPBlockGate
	attempts    *AttemptTracker
	securityLog SecurityRecorder
	hasher      IPHasher
	logger      *slog.Logger
}

// NewAdminGate creates an AdminGate.
func NewAdminGate(config AdminGateConfig, blocks IPBlockGate, attempts *AttemptTracker, securityLog SecurityRecorder, hasher IPHasher, logger *slog.Logger) *AdminGate {
	return &AdminGate{
		config:      config,
		blocks:      blocks,
		attempts:    attempts,
		securityLog: securityLog,
		hasher:      hasher,
		logger:      logger,
	}
}

// Authenticate validates an admin password attempt from the given IP.
// Returns nil on success, or one of ErrNotConfigured, ErrIPBlocked,
// ErrRateLimited, ErrUnauthorized.
func (g *AdminGate) Authenticate(ctx context.Context, ip, password, totpCode string) error {
	if g.config.Password == "" && g.config.PasswordHash == "" {
		g.logger.Error("admin password not configured")
		return models.ErrNotConfigured
	}

	if g.blocks.IsBlocked(ctx, ip) {
		return models.ErrIPBlocked
	}

	if allowed, _ := g.attempts.Allow(ip); !allowed {
		g.securityLog.Record(ctx, models.SecurityEventRateLimited, g.hasher.Hash(ip), nil,
			models.SecurityDetails{"route": "admin_auth"})
		return models.ErrRateLimited
	}

	if !g.comparePassword(password) {
		g.recordFailure(ctx, ip, "bad_password")
		return models.ErrUnauthorized
	}

	if g.config.TOTPSecret != "" {
		if !totp.Validate(totpCode, g.config.TOTPSecret) {
			g.recordFailure(ctx, ip, "bad_totp")
			return models.ErrUnauthorized
		}
	}

	g.attempts.RecordSuccess(ip)
	g.securityLog.Record(ctx, models.SecurityEventAdminAuthSuccess, g.hasher.Hash(ip), nil, nil)
	return nil
}

// VerifySharedSecret validates the shared-secret header used by admin
// read/write endpoints. Same comparison discipline as the login path.
func (g *AdminGate) VerifySharedSecret(candidate string) bool {
	if g.config.Password == "" && g.config.PasswordHash == "" {
		return false
	}
	return g.comparePassword(candidate)
}

// comparePassword checks the candidate against the configured secret.
// bcrypt comparison is used when a hash is configured; otherwise lengths
// are compared first (cheap, not secret-dependent) and only equal-length
// candidates reach the byte-wise constant-time check, so latency reveals
// neither password length nor prefix.
func (g *AdminGate) comparePassword(candidate string) bool {
	if g.config.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(g.config.PasswordHash), []byte(candidate)) == nil
	}

	secret := []byte(g.config.Password)
	cand := []byte(candidate)
	if len(cand) != len(secret) {
		return false
	}
	return subtle.ConstantTimeCompare(cand, secret) == 1
}

// recordFailure feeds the throttle, escalates to a persisted block when
// the in-memory threshold is reached, and logs a security event carrying
// only a truncated IP fragment.
func (g *AdminGate) recordFailure(ctx context.Context, ip, reason string) {
	g.attempts.RecordFailure(ip)

	g.logger.Warn("admin auth failed",
		slog.String("ip", pkglogger.TruncatedIP(ip)),
		slog.String("reason", reason))

	g.securityLog.Record(ctx, models.SecurityEventAdminAuthFailed, g.hasher.Hash(ip), nil,
		models.SecurityDetails{"reason": reason})

	if allowed, _ := g.attempts.Allow(ip); !allowed {
		if err := g.blocks.BlockWithDefaultDuration(ctx, ip, models.BlockReasonAdminBruteForce); err != nil {
			g.logger.Error("failed to escalate admin brute force to ip block", slog.Any("error", err))
		}
	}
}

// RetryAfter exposes the throttle wait for 429 responses.
func (g *AdminGate) RetryAfter(ip string) time.Duration {
	_, retryAfter := g.attempts.Allow(ip)
	return retryAfter
}
