package models

import "time"

// Email types recorded in the send log
const (
	EmailTypeAbandonedCart = "abandoned_cart"
	EmailTypeOTP           = "otp"
	EmailTypeSupportAck    = "support_ack"
)

// EmailLog records a sent email. Append-only: the presence of an
// (user, abandoned_cart) entry dated after a job's creation is the durable
// guard against duplicate reminder sends.
type EmailLog struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	EmailType string    `db:"email_type"`
	ToEmail   string    `db:"to_email"`
	SentAt    time.Time `db:"sent_at"`
}
