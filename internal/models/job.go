package models

import "time"

// Job statuses
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Order statuses
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

// GuestEmailDomain marks synthetic placeholder addresses created for
// anonymous checkouts. These never receive reminder emails.
const GuestEmailDomain = "guest.pawtrait.studio"

// Job is a portrait-generation job. The anti-abuse core consumes jobs
// read-mostly; generation itself is owned by the render pipeline.
type Job struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Status    string    `db:"status"`
	OutputKey *string   `db:"output_key"`
	CreatedAt time.Time `db:"created_at"`
}

// Order is a purchase of a job's output.
type Order struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	JobID     *string   `db:"job_id"`
	Status    string    `db:"status"`
	AmountUSD int       `db:"amount_cents"`
	CreatedAt time.Time `db:"created_at"`
}

// User is the owning account for jobs and orders.
type User struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// AbandonedCartCandidate is a completed-but-unpaid job eligible for a
// reminder email.
type AbandonedCartCandidate struct {
	JobID        string    `db:"job_id"`
	UserID       string    `db:"user_id"`
	Email        string    `db:"email"`
	OutputKey    string    `db:"output_key"`
	JobCreatedAt time.Time `db:"job_created_at"`
}
