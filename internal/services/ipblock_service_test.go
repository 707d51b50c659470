package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	"github.com/pawtraitstudio/pawtrait-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBlockedIPRepo struct {
	blocked   map[string]bool
	lookupErr error
	upserts   []upsertCall
}

type upsertCall struct {
	ipHash    string
	reason    string
	expiresAt *time.Time
}

func newMockBlockedIPRepo() *mockBlockedIPRepo {
	return &mockBlockedIPRepo{blocked: make(map[string]bool)}
}

func (m *mockBlockedIPRepo) IsBlocked(ctx context.Context, ipHash string) (bool, error) {
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	return m.blocked[ipHash], nil
}

func (m *mockBlockedIPRepo) Upsert(ctx context.Context, ipHash, reason string, expiresAt *time.Time) (*models.BlockedIP, error) {
	m.upserts = append(m.upserts, upsertCall{ipHash: ipHash, reason: reason, expiresAt: expiresAt})
	m.blocked[ipHash] = true
	return &models.BlockedIP{
		IPHash:         ipHash,
		Reason:         reason,
		ViolationCount: len(m.upserts),
		ExpiresAt:      expiresAt,
	}, nil
}

func (m *mockBlockedIPRepo) ListActive(ctx context.Context, limit int) ([]*models.BlockedIP, error) {
	return nil, nil
}

type mockSecurityLogRepo struct {
	entries []*models.SecurityLogEntry
}

func (m *mockSecurityLogRepo) Create(ctx context.Context, entry *models.SecurityLogEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockSecurityLogRepo) ListRecent(ctx context.Context, limit int) ([]*models.SecurityLogEntry, error) {
	return m.entries, nil
}

func (m *mockSecurityLogRepo) eventTypes() []string {
	types := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		types = append(types, e.EventType)
	}
	return types
}

type fakeHasher struct{}

func (fakeHasher) Hash(ip string) string { return "hash:" + ip }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newIPBlockService(repo *mockBlockedIPRepo, logRepo *mockSecurityLogRepo, cfg services.IPBlockConfig) *services.IPBlockService {
	logger := discardLogger()
	securityLog := services.NewSecurityLogService(logRepo, logger)
	return services.NewIPBlockService(repo, fakeHasher{}, securityLog, cfg, logger)
}

func TestIPBlockService_DevelopmentAlwaysAllows(t *testing.T) {
	repo := newMockBlockedIPRepo()
	repo.blocked["hash:203.0.113.7"] = true
	svc := newIPBlockService(repo, &mockSecurityLogRepo{}, services.IPBlockConfig{Env: "development"})

	assert.False(t, svc.IsBlocked(context.Background(), "203.0.113.7"))
}

func TestIPBlockService_ProductionBlockedIP(t *testing.T) {
	repo := newMockBlockedIPRepo()
	repo.blocked["hash:203.0.113.7"] = true
	svc := newIPBlockService(repo, &mockSecurityLogRepo{}, services.IPBlockConfig{Env: "production"})

	assert.True(t, svc.IsBlocked(context.Background(), "203.0.113.7"))
	assert.False(t, svc.IsBlocked(context.Background(), "203.0.113.8"))
}

func TestIPBlockService_StoreErrorFailsClosed(t *testing.T) {
	repo := newMockBlockedIPRepo()
	repo.lookupErr = errors.New("connection refused")
	logRepo := &mockSecurityLogRepo{}
	svc := newIPBlockService(repo, logRepo, services.IPBlockConfig{Env: "production"})

	assert.True(t, svc.IsBlocked(context.Background(), "203.0.113.7"))
	assert.Contains(t, logRepo.eventTypes(), models.SecurityEventBlockStoreDegraded)
}

func TestIPBlockService_StoreErrorFailOpenConfigured(t *testing.T) {
	repo := newMockBlockedIPRepo()
	repo.lookupErr = errors.New("connection refused")
	svc := newIPBlockService(repo, &mockSecurityLogRepo{}, services.IPBlockConfig{Env: "production", FailOpen: true})

	assert.False(t, svc.IsBlocked(context.Background(), "203.0.113.7"))
}

func TestIPBlockService_BlockWithDuration(t *testing.T) {
	repo := newMockBlockedIPRepo()
	logRepo := &mockSecurityLogRepo{}
	svc := newIPBlockService(repo, logRepo, services.IPBlockConfig{Env: "production"})

	err := svc.Block(context.Background(), "203.0.113.7", models.BlockReasonRateAbuse, 60)

	require.NoError(t, err)
	require.Len(t, repo.upserts, 1)
	assert.Equal(t, "hash:203.0.113.7", repo.upserts[0].ipHash)
	require.NotNil(t, repo.upserts[0].expiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *repo.upserts[0].expiresAt, 5*time.Second)
	assert.Contains(t, logRepo.eventTypes(), models.SecurityEventIPBlocked)
}

func TestIPBlockService_ZeroDurationMeansPermanent(t *testing.T) {
	repo := newMockBlockedIPRepo()
	svc := newIPBlockService(repo, &mockSecurityLogRepo{}, services.IPBlockConfig{Env: "production"})

	require.NoError(t, svc.Block(context.Background(), "203.0.113.7", models.BlockReasonManual, 0))

	require.Len(t, repo.upserts, 1)
	assert.Nil(t, repo.upserts[0].expiresAt)
}

func TestIPBlockService_BlockWithDefaultDuration(t *testing.T) {
	repo := newMockBlockedIPRepo()
	svc := newIPBlockService(repo, &mockSecurityLogRepo{}, services.IPBlockConfig{Env: "production", DefaultBlockMinutes: 30})

	require.NoError(t, svc.BlockWithDefaultDuration(context.Background(), "203.0.113.7", models.BlockReasonAdminBruteForce))

	require.Len(t, repo.upserts, 1)
	require.NotNil(t, repo.upserts[0].expiresAt)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *repo.upserts[0].expiresAt, 5*time.Second)
}
