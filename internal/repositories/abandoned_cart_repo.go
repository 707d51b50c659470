package repositories

import (
	"context"
	"fmt"

	"github.com/pawtraitstudio/pawtrait-api/internal/database"
	"github.com/pawtraitstudio/pawtrait-api/internal/models"
)

// AbandonedCartRepository finds completed-but-unpaid jobs eligible for a
// reminder email.
type AbandonedCartRepository struct {
	db *database.DB
}

// NewAbandonedCartRepository creates a new AbandonedCartRepository
func NewAbandonedCartRepository(db *database.DB) *AbandonedCartRepository {
	return &AbandonedCartRepository{db: db}
}

// FindCandidates selects jobs where every predicate holds:
//   - status completed with a non-null output
//   - job age inside the trailing 24–48h window (very old jobs are never
//     re-scanned)
//   - owner has a real email, not a synthetic guest placeholder
//   - no paid order for the owner created at or after one hour before the
//     job (proxy for "this generation was already purchased")
//   - no prior abandoned-cart log for the owner dated after the job
//
// The batch is bounded; candidates beyond the limit wait for a later run.
func (r *AbandonedCartRepository) FindCandidates(ctx context.Context, limit int) ([]*models.AbandonedCartCandidate, error) {
	query := `
		SELECT j.id, j.user_id, u.email, j.output_key, j.created_at
		FROM jobs j
		JOIN users u ON u.id = j.user_id
		WHERE j.status = $1
		  AND j.output_key IS NOT NULL
		  AND j.created_at BETWEEN NOW() - INTERVAL '48 hours' AND NOW() - INTERVAL '24 hours'
		  AND u.email IS NOT NULL
		  AND u.email <> ''
		  AND u.email NOT LIKE '%@' || $2
		  AND NOT EXISTS (
			SELECT 1 FROM orders o
			WHERE o.user_id = j.user_id
			  AND o.status = $3
			  AND o.created_at >= j.created_at - INTERVAL '1 hour'
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM email_logs el
			WHERE el.user_id = j.user_id
			  AND el.email_type = $4
			  AND el.sent_at > j.created_at
		  )
		ORDER BY j.created_at ASC
		LIMIT $5
	`

	rows, err := r.db.Pool.Query(ctx, query,
		models.JobStatusCompleted,
		models.GuestEmailDomain,
		models.OrderStatusPaid,
		models.EmailTypeAbandonedCart,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query abandoned cart candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]*models.AbandonedCartCandidate, 0)
	for rows.Next() {
		var c models.AbandonedCartCandidate
		if err := rows.Scan(&c.JobID, &c.UserID, &c.Email, &c.OutputKey, &c.JobCreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidate rows: %w", err)
	}

	return candidates, nil
}
