package services

import (
	"context"
	"log/slog"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
)

// SecurityLogRepository defines the interface for the security event trail
type SecurityLogRepository interface {
	Create(ctx context.Context, entry *models.SecurityLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]*models.SecurityLogEntry, error)
}

// SecurityLogService records security events with a dual-write pattern
// (slog + database). A failed database write is swallowed: logging must
// never block the primary action.
type SecurityLogService struct {
	repo   SecurityLogRepository
	logger *slog.Logger
}

// NewSecurityLogService creates a new SecurityLogService
func NewSecurityLogService(repo SecurityLogRepository, logger *slog.Logger) *SecurityLogService {
	return &SecurityLogService{
		repo:   repo,
		logger: logger,
	}
}

// Record appends a security event. ipHash must already be hashed; raw IPs
// never reach this layer.
func (s *SecurityLogService) Record(ctx context.Context, eventType, ipHash string, fingerprint *string, details models.SecurityDetails) {
	s.logger.WarnContext(ctx, "security event",
		slog.String("event_type", eventType),
		slog.String("ip_hash", ipHash),
		slog.Any("details", details),
	)

	entry := &models.SecurityLogEntry{
		EventType:   eventType,
		IPHash:      ipHash,
		Fingerprint: fingerprint,
		Details:     details,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist security event",
			slog.String("event_type", eventType),
			slog.Any("error", err),
		)
	}
}

// RecentEvents returns the newest events for admin inspection.
func (s *SecurityLogService) RecentEvents(ctx context.Context, limit int) ([]*models.SecurityLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit)
}
