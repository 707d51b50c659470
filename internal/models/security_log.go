package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types for the security log
const (
	SecurityEventAdminAuthFailed    = "admin_auth_failed"
	SecurityEventAdminAuthSuccess   = "admin_auth_success"
	SecurityEventHoneypotTriggered  = "honeypot_triggered"
	SecurityEventRateLimited        = "rate_limited"
	SecurityEventIPBlocked          = "ip_blocked"
	SecurityEventTurnstileRejected  = "turnstile_rejected"
	SecurityEventBlockStoreDegraded = "block_store_degraded"
)

// SecurityLogEntry is an append-only audit record. Entries are never
// mutated or deleted.
type SecurityLogEntry struct {
	ID          uuid.UUID       `db:"id"`
	EventType   string          `db:"event_type"`
	IPHash      string          `db:"ip_hash"`
	Fingerprint *string         `db:"fingerprint"`
	Details     SecurityDetails `db:"details"`
	CreatedAt   time.Time       `db:"created_at"`
}

// SecurityDetails holds opaque context for a security event
type SecurityDetails map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (sd *SecurityDetails) Scan(value interface{}) error {
	if value == nil {
		*sd = make(SecurityDetails)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*sd = SecurityDetails(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (sd SecurityDetails) Value() (driver.Value, error) {
	if sd == nil {
		return nil, nil
	}
	return json.Marshal(sd)
}
