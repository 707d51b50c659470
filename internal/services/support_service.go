package services

import (
	"context"
	"log/slog"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	pkglogger "github.com/pawtraitstudio/pawtrait-api/pkg/logger"
)

// SupportTicketRepository defines ticket persistence
type SupportTicketRepository interface {
	Create(ctx context.Context, ticket *models.SupportTicket) error
}

// SupportService persists contact form submissions and sends the
// acknowledgement email.
type SupportService struct {
	repo         SupportTicketRepository
	emailService EmailService
	logger       *slog.Logger
}

// NewSupportService creates a new SupportService
func NewSupportService(repo SupportTicketRepository, emailService EmailService, logger *slog.Logger) *SupportService {
	return &SupportService{
		repo:         repo,
		emailService: emailService,
		logger:       logger,
	}
}

// Submit stores the ticket and acknowledges by email. A failed ack is
// logged but not surfaced: the ticket is already persisted.
func (s *SupportService) Submit(ctx context.Context, email, subject, message, ipHash string) error {
	ticket := &models.SupportTicket{
		Email:   email,
		Subject: subject,
		Message: message,
		IPHash:  ipHash,
	}

	if err := s.repo.Create(ctx, ticket); err != nil {
		s.logger.Error("failed to persist support ticket",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return err
	}

	if err := s.emailService.SendSupportAckEmail(ctx, email); err != nil {
		s.logger.Warn("support ack email failed",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}

	return nil
}
