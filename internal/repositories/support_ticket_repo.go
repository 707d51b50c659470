package repositories

import (
	"context"
	"fmt"

	"github.com/pawtraitstudio/pawtrait-api/internal/database"
	"github.com/pawtraitstudio/pawtrait-api/internal/models"
)

// SupportTicketRepository handles contact form submissions
type SupportTicketRepository struct {
	db *database.DB
}

// NewSupportTicketRepository creates a new SupportTicketRepository
func NewSupportTicketRepository(db *database.DB) *SupportTicketRepository {
	return &SupportTicketRepository{db: db}
}

// Create persists a ticket.
func (r *SupportTicketRepository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	query := `
		INSERT INTO support_tickets (email, subject, message, ip_hash)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Pool.Exec(ctx, query, ticket.Email, ticket.Subject, ticket.Message, ticket.IPHash)
	if err != nil {
		return fmt.Errorf("failed to create support ticket: %w", err)
	}

	return nil
}
