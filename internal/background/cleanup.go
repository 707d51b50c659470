package background

import (
	"context"
	"log/slog"
	"time"
)

// OTPPurger removes expired one-time codes
type OTPPurger interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Reclaimer drops expired in-memory entries (rate counters, attempt
// history) to bound memory.
type Reclaimer interface {
	Reclaim()
}

// CleanupManager periodically purges expired one-time codes and reclaims
// in-memory counter state. Expired IP blocks are deliberately not
// purged; the rows stop matching but stay as the violation audit trail.
type CleanupManager struct {
	otpRepo    OTPPurger
	reclaimers []Reclaimer
	logger     *slog.Logger
	interval   time.Duration
	stopCh     chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	otpRepo OTPPurger,
	reclaimers []Reclaimer,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		otpRepo:    otpRepo,
		reclaimers: reclaimers,
		logger:     logger,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup performs one cleanup pass
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.otpRepo.CleanupExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired one-time codes", slog.Any("error", err))
	} else if rowsDeleted > 0 {
		cm.logger.Info("expired one-time code cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}

	for _, r := range cm.reclaimers {
		r.Reclaim()
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
