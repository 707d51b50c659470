package repositories

import (
	"context"
	"fmt"

	"github.com/pawtraitstudio/pawtrait-api/internal/database"
	"github.com/pawtraitstudio/pawtrait-api/internal/models"
)

// SecurityLogRepository handles the append-only security event trail
type SecurityLogRepository struct {
	db *database.DB
}

// NewSecurityLogRepository creates a new SecurityLogRepository
func NewSecurityLogRepository(db *database.DB) *SecurityLogRepository {
	return &SecurityLogRepository{db: db}
}

// Create appends a security event. Entries are never updated or deleted.
func (r *SecurityLogRepository) Create(ctx context.Context, entry *models.SecurityLogEntry) error {
	query := `
		INSERT INTO security_logs (event_type, ip_hash, fingerprint, details)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		entry.EventType,
		entry.IPHash,
		entry.Fingerprint,
		entry.Details,
	)
	if err != nil {
		return fmt.Errorf("failed to append security log: %w", err)
	}

	return nil
}

// ListRecent returns the newest events for admin inspection.
func (r *SecurityLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.SecurityLogEntry, error) {
	query := `
		SELECT id, event_type, ip_hash, fingerprint, details, created_at
		FROM security_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list security logs: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.SecurityLogEntry, 0)
	for rows.Next() {
		var entry models.SecurityLogEntry
		err := rows.Scan(
			&entry.ID, &entry.EventType, &entry.IPHash,
			&entry.Fingerprint, &entry.Details, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security log: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security log rows: %w", err)
	}

	return entries, nil
}
