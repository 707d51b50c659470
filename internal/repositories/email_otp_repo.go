package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pawtraitstudio/pawtrait-api/internal/database"
	"github.com/pawtraitstudio/pawtrait-api/internal/models"
)

// EmailOTPRepository handles one-time code data access
type EmailOTPRepository struct {
	db *database.DB
}

// NewEmailOTPRepository creates a new EmailOTPRepository
func NewEmailOTPRepository(db *database.DB) *EmailOTPRepository {
	return &EmailOTPRepository{db: db}
}

// CreateInvalidatingPrior inserts a new code and, in the same transaction,
// marks every prior unused code for the address as used. This keeps the
// at-most-one-unused-code-per-email invariant even when issuance races.
func (r *EmailOTPRepository) CreateInvalidatingPrior(ctx context.Context, email, codeHash string, expiresAt time.Time) (*models.EmailOTP, error) {
	var otp models.EmailOTP

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE email_otps SET used = true WHERE email = $1 AND used = false`,
			email,
		)
		if err != nil {
			return fmt.Errorf("failed to invalidate prior codes: %w", err)
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO email_otps (email, code_hash, expires_at)
			VALUES ($1, $2, $3)
			RETURNING id, email, code_hash, expires_at, used, created_at
		`, email, codeHash, expiresAt)

		return row.Scan(&otp.ID, &otp.Email, &otp.CodeHash, &otp.ExpiresAt, &otp.Used, &otp.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	return &otp, nil
}

// GetNewestUnused returns the most recent unused, unexpired code for an email.
func (r *EmailOTPRepository) GetNewestUnused(ctx context.Context, email string) (*models.EmailOTP, error) {
	query := `
		SELECT id, email, code_hash, expires_at, used, created_at
		FROM email_otps
		WHERE email = $1 AND used = false AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`

	var otp models.EmailOTP
	err := r.db.Pool.QueryRow(ctx, query, email).Scan(
		&otp.ID, &otp.Email, &otp.CodeHash, &otp.ExpiresAt, &otp.Used, &otp.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &otp, nil
}

// MarkUsed consumes a code. Returns ErrNotFound when already consumed.
func (r *EmailOTPRepository) MarkUsed(ctx context.Context, id string) error {
	query := `UPDATE email_otps SET used = true WHERE id = $1 AND used = false`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark otp used: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// CleanupExpired deletes codes that expired more than a day ago.
func (r *EmailOTPRepository) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM email_otps WHERE expires_at < NOW() - INTERVAL '1 day'`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired otps: %w", err)
	}

	return result.RowsAffected(), nil
}
