package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
)

// BlockedIPRepository defines the interface for IP ban persistence
type BlockedIPRepository interface {
	IsBlocked(ctx context.Context, ipHash string) (bool, error)
	Upsert(ctx context.Context, ipHash, reason string, expiresAt *time.Time) (*models.BlockedIP, error)
	ListActive(ctx context.Context, limit int) ([]*models.BlockedIP, error)
}

// IPHasher defines the one-way IP digest used everywhere an IP is stored
type IPHasher interface {
	Hash(ip string) string
}

// IPBlockConfig holds behavior knobs for the block gate
type IPBlockConfig struct {
	Env string
	// FailOpen lets requests through when the block store is unreachable.
	// Default is false: availability is sacrificed for safety.
	FailOpen            bool
	DefaultBlockMinutes int
}

// IPBlockService gates requests on the persisted ban list and escalates
// repeat offenders.
type IPBlockService struct {
	repo        BlockedIPRepository
	hasher      IPHasher
	securityLog *SecurityLogService
	config      IPBlockConfig
	logger      *slog.Logger
}

// NewIPBlockService creates a new IPBlockService
func NewIPBlockService(repo BlockedIPRepository, hasher IPHasher, securityLog *SecurityLogService, config IPBlockConfig, logger *slog.Logger) *IPBlockService {
	return &IPBlockService{
		repo:        repo,
		hasher:      hasher,
		securityLog: securityLog,
		config:      config,
		logger:      logger,
	}
}

// IsBlocked reports whether requests from the IP must be rejected.
// Outside production it always returns false so local development never
// locks itself out. On a storage error the gate fails closed unless
// FailOpen is set; every fail-closed decision is logged so a degraded
// block store is observable before it becomes a full outage.
func (s *IPBlockService) IsBlocked(ctx context.Context, ip string) bool {
	if s.config.Env != "production" {
		return false
	}

	blocked, err := s.repo.IsBlocked(ctx, s.hasher.Hash(ip))
	if err != nil {
		s.logger.Error("block store unreachable",
			slog.Any("error", err),
			slog.Bool("fail_open", s.config.FailOpen))
		s.securityLog.Record(ctx, models.SecurityEventBlockStoreDegraded, s.hasher.Hash(ip), nil,
			models.SecurityDetails{"fail_open": s.config.FailOpen})
		return !s.config.FailOpen
	}

	return blocked
}

// Block records a violation for the IP. durationMinutes <= 0 means a
// permanent block. Escalation to the permanent threshold happens in the
// storage layer, so the caller never needs extra logic for repeat abuse.
func (s *IPBlockService) Block(ctx context.Context, ip, reason string, durationMinutes int) error {
	var expiresAt *time.Time
	if durationMinutes > 0 {
		t := time.Now().Add(time.Duration(durationMinutes) * time.Minute)
		expiresAt = &t
	}

	ipHash := s.hasher.Hash(ip)
	block, err := s.repo.Upsert(ctx, ipHash, reason, expiresAt)
	if err != nil {
		s.logger.Error("failed to record ip block",
			slog.String("ip_hash", ipHash),
			slog.Any("error", err))
		return err
	}

	s.securityLog.Record(ctx, models.SecurityEventIPBlocked, ipHash, nil, models.SecurityDetails{
		"reason":          reason,
		"violation_count": block.ViolationCount,
		"permanent":       block.IsPermanent(),
	})

	return nil
}

// BlockWithDefaultDuration records a violation using the configured
// default temporary duration.
func (s *IPBlockService) BlockWithDefaultDuration(ctx context.Context, ip, reason string) error {
	return s.Block(ctx, ip, reason, s.config.DefaultBlockMinutes)
}

// ActiveBlocks lists currently matching bans for admin inspection.
func (s *IPBlockService) ActiveBlocks(ctx context.Context, limit int) ([]*models.BlockedIP, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListActive(ctx, limit)
}
