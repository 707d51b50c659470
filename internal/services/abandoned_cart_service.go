package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	pkglogger "github.com/pawtraitstudio/pawtrait-api/pkg/logger"
)

// AbandonedCartRepository defines the candidate query
type AbandonedCartRepository interface {
	FindCandidates(ctx context.Context, limit int) ([]*models.AbandonedCartCandidate, error)
}

// EmailLogRepository defines the append-only send log used as the
// duplicate-send guard
type EmailLogRepository interface {
	Create(ctx context.Context, log *models.EmailLog) error
	HasEntrySince(ctx context.Context, userID, emailType string, since time.Time) (bool, error)
}

// maxCandidatesPerRun bounds each scan; the rest wait for the next run.
const maxCandidatesPerRun = 50

// ScanSummary reports the outcome of one scanner invocation
type ScanSummary struct {
	Found int `json:"found"`
	Sent  int `json:"sent"`
}

// AbandonedCartService sends at-most-once reminder emails for completed
// jobs that were never purchased. The email-log row written after each
// send is the durable dedup guard; a failed send writes no row and stays
// eligible for the next run.
type AbandonedCartService struct {
	repo         AbandonedCartRepository
	emailLogRepo EmailLogRepository
	emailService EmailService
	logger       *slog.Logger

	// The dedup guard is not race-proof across simultaneous runs, so runs
	// are serialized in-process.
	mu sync.Mutex
}

// NewAbandonedCartService creates a new AbandonedCartService
func NewAbandonedCartService(repo AbandonedCartRepository, emailLogRepo EmailLogRepository, emailService EmailService, logger *slog.Logger) *AbandonedCartService {
	return &AbandonedCartService{
		repo:         repo,
		emailLogRepo: emailLogRepo,
		emailService: emailService,
		logger:       logger,
	}
}

// Scan runs one reminder pass. Per-item failures are skipped, never
// surfaced; only a total pipeline failure (the candidate query) returns an
// error. A concurrent invocation returns ErrScanInProgress instead of
// risking duplicate sends.
func (s *AbandonedCartService) Scan(ctx context.Context) (*ScanSummary, error) {
	if !s.mu.TryLock() {
		return nil, models.ErrScanInProgress
	}
	defer s.mu.Unlock()

	candidates, err := s.repo.FindCandidates(ctx, maxCandidatesPerRun)
	if err != nil {
		s.logger.Error("abandoned cart query failed", slog.Any("error", err))
		return nil, err
	}

	summary := &ScanSummary{Found: len(candidates)}

	for _, c := range candidates {
		// Re-check the guard right before sending: the batch query ran a
		// moment ago and another path may have logged a reminder since.
		already, err := s.emailLogRepo.HasEntrySince(ctx, c.UserID, models.EmailTypeAbandonedCart, c.JobCreatedAt)
		if err != nil || already {
			continue
		}

		if err := s.emailService.SendAbandonedCartEmail(ctx, c.Email, c.OutputKey); err != nil {
			// No log entry: the candidate stays eligible for a later run.
			s.logger.Warn("abandoned cart send failed, will retry next run",
				slog.String("job_id", c.JobID),
				slog.String("email", pkglogger.SanitizedEmail(c.Email)),
				slog.Any("error", err))
			continue
		}

		if err := s.emailLogRepo.Create(ctx, &models.EmailLog{
			UserID:    c.UserID,
			EmailType: models.EmailTypeAbandonedCart,
			ToEmail:   c.Email,
		}); err != nil {
			// The send went out but the guard write failed: the user may
			// get one duplicate next run. Loud log, nothing else to do.
			s.logger.Error("abandoned cart email log write failed after send",
				slog.String("job_id", c.JobID),
				slog.Any("error", err))
		}

		summary.Sent++
	}

	s.logger.Info("abandoned cart scan complete",
		slog.Int("found", summary.Found),
		slog.Int("sent", summary.Sent))

	return summary, nil
}
