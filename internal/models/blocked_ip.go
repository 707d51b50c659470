package models

import "time"

// PermanentBlockThreshold is the violation count at which a block becomes
// permanent regardless of the duration requested by the caller.
const PermanentBlockThreshold = 5

// Block reasons recorded alongside blocked IPs
const (
	BlockReasonAdminBruteForce = "admin_brute_force"
	BlockReasonHoneypot        = "honeypot_triggered"
	BlockReasonRateAbuse       = "rate_limit_abuse"
	BlockReasonManual          = "manual"
)

// BlockedIP represents a persisted IP ban. Rows are never deleted; an
// expired row simply stops matching so the violation history survives.
type BlockedIP struct {
	ID             string     `db:"id"`
	IPHash         string     `db:"ip_hash"`
	Reason         string     `db:"reason"`
	ViolationCount int        `db:"violation_count"`
	ExpiresAt      *time.Time `db:"expires_at"` // nil = permanent
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// IsActive reports whether the block currently matches requests.
func (b *BlockedIP) IsActive(now time.Time) bool {
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}

// IsPermanent reports whether the block has no expiry.
func (b *BlockedIP) IsPermanent() bool {
	return b.ExpiresAt == nil
}
