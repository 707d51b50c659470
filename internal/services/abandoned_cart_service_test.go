package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	"github.com/pawtraitstudio/pawtrait-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCartRepo struct {
	candidates []*models.AbandonedCartCandidate
	queryErr   error
}

func (m *mockCartRepo) FindCandidates(ctx context.Context, limit int) ([]*models.AbandonedCartCandidate, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if len(m.candidates) > limit {
		return m.candidates[:limit], nil
	}
	return m.candidates, nil
}

type mockEmailLogRepo struct {
	logs      []*models.EmailLog
	createErr error
}

func (m *mockEmailLogRepo) Create(ctx context.Context, log *models.EmailLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	log.SentAt = time.Now()
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockEmailLogRepo) HasEntrySince(ctx context.Context, userID, emailType string, since time.Time) (bool, error) {
	for _, l := range m.logs {
		if l.UserID == userID && l.EmailType == emailType && l.SentAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func candidate(jobID, userID, email string) *models.AbandonedCartCandidate {
	return &models.AbandonedCartCandidate{
		JobID:        jobID,
		UserID:       userID,
		Email:        email,
		OutputKey:    "renders/" + jobID + ".png",
		JobCreatedAt: time.Now().Add(-30 * time.Hour),
	}
}

func TestAbandonedCartService_SendsOnceAndLogs(t *testing.T) {
	repo := &mockCartRepo{candidates: []*models.AbandonedCartCandidate{
		candidate("job-1", "user-1", "pet@example.com"),
	}}
	logRepo := &mockEmailLogRepo{}
	emails := &mockEmailService{}
	svc := services.NewAbandonedCartService(repo, logRepo, emails, discardLogger())

	summary, err := svc.Scan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Found)
	assert.Equal(t, 1, summary.Sent)
	assert.Len(t, emails.cartSends, 1)
	require.Len(t, logRepo.logs, 1)
	assert.Equal(t, models.EmailTypeAbandonedCart, logRepo.logs[0].EmailType)

	// Second run: the log entry is the dedup guard, zero additional sends
	summary, err = svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
	assert.Len(t, emails.cartSends, 1)
}

func TestAbandonedCartService_SendFailureLeavesCandidateEligible(t *testing.T) {
	repo := &mockCartRepo{candidates: []*models.AbandonedCartCandidate{
		candidate("job-1", "user-1", "pet@example.com"),
	}}
	logRepo := &mockEmailLogRepo{}
	emails := &mockEmailService{sendErr: errors.New("ses throttled")}
	svc := services.NewAbandonedCartService(repo, logRepo, emails, discardLogger())

	summary, err := svc.Scan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Found)
	assert.Equal(t, 0, summary.Sent)
	// No log entry means the next run retries
	assert.Empty(t, logRepo.logs)

	emails.sendErr = nil
	summary, err = svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
}

func TestAbandonedCartService_QueryErrorSurfaces(t *testing.T) {
	repo := &mockCartRepo{queryErr: errors.New("connection refused")}
	svc := services.NewAbandonedCartService(repo, &mockEmailLogRepo{}, &mockEmailService{}, discardLogger())

	_, err := svc.Scan(context.Background())

	assert.Error(t, err)
}

type blockingEmailService struct {
	mockEmailService
	entered chan struct{}
	release chan struct{}
}

func (b *blockingEmailService) SendAbandonedCartEmail(ctx context.Context, email, outputKey string) error {
	close(b.entered)
	<-b.release
	return nil
}

func TestAbandonedCartService_ConcurrentScanRejected(t *testing.T) {
	repo := &mockCartRepo{candidates: []*models.AbandonedCartCandidate{
		candidate("job-1", "user-1", "pet@example.com"),
	}}
	emails := &blockingEmailService{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := services.NewAbandonedCartService(repo, &mockEmailLogRepo{}, emails, discardLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Scan(context.Background())
	}()

	<-emails.entered

	_, err := svc.Scan(context.Background())
	assert.ErrorIs(t, err, models.ErrScanInProgress)

	close(emails.release)
	<-done
}

func TestAbandonedCartService_BatchBoundedAtFifty(t *testing.T) {
	var candidates []*models.AbandonedCartCandidate
	for i := 0; i < 80; i++ {
		candidates = append(candidates, candidate(
			fmt.Sprintf("job-%d", i),
			fmt.Sprintf("user-%d", i),
			"pet@example.com",
		))
	}
	repo := &mockCartRepo{candidates: candidates}
	emails := &mockEmailService{}
	svc := services.NewAbandonedCartService(repo, &mockEmailLogRepo{}, emails, discardLogger())

	summary, err := svc.Scan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 50, summary.Found)
	assert.Equal(t, 50, summary.Sent)
}
