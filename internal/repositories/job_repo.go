package repositories

import (
	"context"
	"fmt"

	"github.com/pawtraitstudio/pawtrait-api/internal/database"
	"github.com/pawtraitstudio/pawtrait-api/internal/models"
)

// JobRepository reads portrait-generation jobs. The anti-abuse core only
// consumes jobs; the render pipeline owns their lifecycle.
type JobRepository struct {
	db *database.DB
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *database.DB) *JobRepository {
	return &JobRepository{db: db}
}

// GetByID returns a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	query := `
		SELECT id, user_id, status, output_key, created_at
		FROM jobs
		WHERE id = $1
	`

	var job models.Job
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.Status, &job.OutputKey, &job.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &job, nil
}

// IsPaid reports whether a paid order references the job.
func (r *JobRepository) IsPaid(ctx context.Context, jobID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE job_id = $1 AND status = $2
		)
	`

	var paid bool
	err := r.db.Pool.QueryRow(ctx, query, jobID, models.OrderStatusPaid).Scan(&paid)
	if err != nil {
		return false, fmt.Errorf("failed to check job payment: %w", err)
	}

	return paid, nil
}
