package models

import "time"

// EmailOTP is a short-lived one-time code delivered by email. At most one
// unused code exists per address: issuing a new code marks all prior unused
// codes for that address as used.
type EmailOTP struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	CodeHash  string    `db:"code_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	Used      bool      `db:"used"`
	CreatedAt time.Time `db:"created_at"`
}

// IsExpired reports whether the code can no longer be redeemed.
func (o *EmailOTP) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}
