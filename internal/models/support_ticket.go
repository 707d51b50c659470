package models

import "time"

// SupportTicket is a message submitted through the public contact form.
type SupportTicket struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Subject   string    `db:"subject"`
	Message   string    `db:"message"`
	IPHash    string    `db:"ip_hash"`
	CreatedAt time.Time `db:"created_at"`
}
