package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	pkglogger "github.com/pawtraitstudio/pawtrait-api/pkg/logger"
)

// EmailOTPRepository defines the interface for one-time code storage
type EmailOTPRepository interface {
	CreateInvalidatingPrior(ctx context.Context, email, codeHash string, expiresAt time.Time) (*models.EmailOTP, error)
	GetNewestUnused(ctx context.Context, email string) (*models.EmailOTP, error)
	MarkUsed(ctx context.Context, id string) error
	CleanupExpired(ctx context.Context) (int64, error)
}

const (
	otpLength = 6
	otpExpiry = 10 * time.Minute
)

// OTPService issues and redeems email one-time codes. Issuing a new code
// invalidates every prior unused code for the address, so only the newest
// code ever validates.
type OTPService struct {
	repo         EmailOTPRepository
	emailService EmailService
	logger       *slog.Logger
}

// NewOTPService creates a new OTPService
func NewOTPService(repo EmailOTPRepository, emailService EmailService, logger *slog.Logger) *OTPService {
	return &OTPService{
		repo:         repo,
		emailService: emailService,
		logger:       logger,
	}
}

// Issue generates a fresh code, stores its hash, and emails the plain
// code. The caller is expected to respond identically whether or not the
// address exists; Issue itself never confirms existence.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	code, err := generateNumericCode(otpLength)
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	expiresAt := time.Now().Add(otpExpiry)
	if _, err := s.repo.CreateInvalidatingPrior(ctx, email, hashCode(code), expiresAt); err != nil {
		s.logger.Error("failed to store otp",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return err
	}

	if err := s.emailService.SendOTPEmail(ctx, email, code); err != nil {
		s.logger.Error("failed to send otp email",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return models.ErrUpstreamUnavailable
	}

	s.logger.Info("otp issued", slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// Redeem consumes the newest unused code for the address. Any mismatch,
// expiry, or absence maps to ErrUnauthorized; the caller never learns
// which.
func (s *OTPService) Redeem(ctx context.Context, email, code string) error {
	otp, err := s.repo.GetNewestUnused(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		return models.ErrInternalServer
	}

	if otp.IsExpired() {
		return models.ErrUnauthorized
	}

	candidate := hashCode(code)
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(otp.CodeHash)) != 1 {
		return models.ErrUnauthorized
	}

	if err := s.repo.MarkUsed(ctx, otp.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Consumed by a concurrent redeem
			return models.ErrUnauthorized
		}
		return models.ErrInternalServer
	}

	s.logger.Info("otp redeemed", slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// generateNumericCode returns a crypto-random numeric string of n digits.
func generateNumericCode(n int) (string, error) {
	code := make([]byte, n)
	for i := range code {
		digit, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + digit.Int64())
	}
	return string(code), nil
}

// hashCode stores codes hashed so a database leak does not expose live codes.
func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
