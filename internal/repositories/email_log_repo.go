package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/pawtraitstudio/pawtrait-api/internal/database"
	"github.com/pawtraitstudio/pawtrait-api/internal/models"
)

// EmailLogRepository handles the append-only email send log
type EmailLogRepository struct {
	db *database.DB
}

// NewEmailLogRepository creates a new EmailLogRepository
func NewEmailLogRepository(db *database.DB) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

// Create appends a send record. For abandoned-cart reminders this row is
// the de-duplication guard, so it must be written immediately after the
// provider accepts the message.
func (r *EmailLogRepository) Create(ctx context.Context, log *models.EmailLog) error {
	query := `
		INSERT INTO email_logs (user_id, email_type, to_email)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Pool.Exec(ctx, query, log.UserID, log.EmailType, log.ToEmail)
	if err != nil {
		return fmt.Errorf("failed to append email log: %w", err)
	}

	return nil
}

// HasEntrySince reports whether a log of the given type exists for the
// user dated after the reference time.
func (r *EmailLogRepository) HasEntrySince(ctx context.Context, userID, emailType string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM email_logs
			WHERE user_id = $1 AND email_type = $2 AND sent_at > $3
		)
	`

	var exists bool
	err := r.db.Pool.QueryRow(ctx, query, userID, emailType, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email log: %w", err)
	}

	return exists, nil
}
