package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pawtraitstudio/pawtrait-api/internal/database"
	"github.com/pawtraitstudio/pawtrait-api/internal/models"
)

// BlockedIPRepository handles persistence of IP bans
type BlockedIPRepository struct {
	db *database.DB
}

// NewBlockedIPRepository creates a new BlockedIPRepository
func NewBlockedIPRepository(db *database.DB) *BlockedIPRepository {
	return &BlockedIPRepository{db: db}
}

// IsBlocked reports whether an active block exists for the hashed IP.
// A block is active when expires_at is NULL (permanent) or in the future.
func (r *BlockedIPRepository) IsBlocked(ctx context.Context, ipHash string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM blocked_ips
			WHERE ip_hash = $1 AND (expires_at IS NULL OR expires_at > NOW())
		)
	`

	var blocked bool
	err := r.db.Pool.QueryRow(ctx, query, ipHash).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("failed to check blocked ip: %w", err)
	}

	return blocked, nil
}

// Upsert records a violation for the hashed IP as a single atomic
// statement. First violation inserts with count 1 and the requested
// expiry (nil = permanent). Repeat violations increment the counter in
// SQL; once the count reaches the permanent threshold the expiry is
// forced to NULL regardless of the duration the caller asked for. The
// increment runs inside Postgres so two concurrent violations for the
// same IP cannot lose an update.
func (r *BlockedIPRepository) Upsert(ctx context.Context, ipHash, reason string, expiresAt *time.Time) (*models.BlockedIP, error) {
	query := `
		INSERT INTO blocked_ips (ip_hash, reason, violation_count, expires_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (ip_hash) DO UPDATE SET
			reason = EXCLUDED.reason,
			violation_count = blocked_ips.violation_count + 1,
			expires_at = CASE
				WHEN blocked_ips.violation_count + 1 >= $4 THEN NULL
				ELSE EXCLUDED.expires_at
			END,
			updated_at = NOW()
		RETURNING id, ip_hash, reason, violation_count, expires_at, created_at, updated_at
	`

	var block models.BlockedIP
	err := r.db.Pool.QueryRow(ctx, query, ipHash, reason, expiresAt, models.PermanentBlockThreshold).Scan(
		&block.ID, &block.IPHash, &block.Reason, &block.ViolationCount,
		&block.ExpiresAt, &block.CreatedAt, &block.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert blocked ip: %w", err)
	}

	return &block, nil
}

// GetByIPHash returns the block record for an IP hash, active or not.
func (r *BlockedIPRepository) GetByIPHash(ctx context.Context, ipHash string) (*models.BlockedIP, error) {
	query := `
		SELECT id, ip_hash, reason, violation_count, expires_at, created_at, updated_at
		FROM blocked_ips
		WHERE ip_hash = $1
	`

	var block models.BlockedIP
	err := r.db.Pool.QueryRow(ctx, query, ipHash).Scan(
		&block.ID, &block.IPHash, &block.Reason, &block.ViolationCount,
		&block.ExpiresAt, &block.CreatedAt, &block.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &block, nil
}

// ListActive returns currently matching blocks, most recent first.
func (r *BlockedIPRepository) ListActive(ctx context.Context, limit int) ([]*models.BlockedIP, error) {
	query := `
		SELECT id, ip_hash, reason, violation_count, expires_at, created_at, updated_at
		FROM blocked_ips
		WHERE expires_at IS NULL OR expires_at > NOW()
		ORDER BY updated_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list active blocks: %w", err)
	}
	defer rows.Close()

	return scanBlockedIPRows(rows)
}

func scanBlockedIPRows(rows pgx.Rows) ([]*models.BlockedIP, error) {
	blocks := make([]*models.BlockedIP, 0)

	for rows.Next() {
		var block models.BlockedIP
		err := rows.Scan(
			&block.ID, &block.IPHash, &block.Reason, &block.ViolationCount,
			&block.ExpiresAt, &block.CreatedAt, &block.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blocked ip: %w", err)
		}
		blocks = append(blocks, &block)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blocked ip rows: %w", err)
	}

	return blocks, nil
}
