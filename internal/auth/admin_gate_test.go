package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pawtraitstudio/pawtrait-api/internal/auth"
	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockBlockGate struct {
	blocked    bool
	blockCalls []string
}

func (m *mockBlockGate) IsBlocked(ctx context.Context, ip string) bool {
	return m.blocked
}

func (m *mockBlockGate) BlockWithDefaultDuration(ctx context.Context, ip, reason string) error {
	m.blockCalls = append(m.blockCalls, reason)
	return nil
}

type mockRecorder struct {
	events []string
}

func (m *mockRecorder) Record(ctx context.Context, eventType, ipHash string, fingerprint *string, details models.SecurityDetails) {
	m.events = append(m.events, eventType)
}

type staticHasher struct{}

func (staticHasher) Hash(ip string) string { return "deadbeefdeadbeef" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGate(config auth.AdminGateConfig, blocks *mockBlockGate, recorder *mockRecorder) *auth.AdminGate {
	tracker := auth.NewAttemptTracker(3, 15*time.Minute)
	return auth.NewAdminGate(config, blocks, tracker, recorder, staticHasher{}, testLogger())
}

func TestAdminGate_NotConfigured(t *testing.T) {
	gate := newGate(auth.AdminGateConfig{}, &mockBlockGate{}, &mockRecorder{})

	err := gate.Authenticate(context.Background(), "203.0.113.7", "anything", "")

	assert.ErrorIs(t, err, models.ErrNotConfigured)
}

func TestAdminGate_BlockedIPShortCircuits(t *testing.T) {
	recorder := &mockRecorder{}
	gate := newGate(auth.AdminGateConfig{Password: "correct horse"}, &mockBlockGate{blocked: true}, recorder)

	err := gate.Authenticate(context.Background(), "203.0.113.7", "correct horse", "")

	assert.ErrorIs(t, err, models.ErrIPBlocked)
	// A blocked client never reaches the comparison, so no auth events
	assert.Empty(t, recorder.events)
}

func TestAdminGate_CorrectPassword(t *testing.T) {
	recorder := &mockRecorder{}
	gate := newGate(auth.AdminGateConfig{Password: "correct horse"}, &mockBlockGate{}, recorder)

	err := gate.Authenticate(context.Background(), "203.0.113.7", "correct horse", "")

	assert.NoError(t, err)
	assert.Contains(t, recorder.events, models.SecurityEventAdminAuthSuccess)
}

func TestAdminGate_WrongPassword(t *testing.T) {
	recorder := &mockRecorder{}
	gate := newGate(auth.AdminGateConfig{Password: "correct horse"}, &mockBlockGate{}, recorder)

	err := gate.Authenticate(context.Background(), "203.0.113.7", "wrong guess!!", "")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Contains(t, recorder.events, models.SecurityEventAdminAuthFailed)
}

func TestAdminGate_ThrottlesAfterRepeatedFailures(t *testing.T) {
	recorder := &mockRecorder{}
	blocks := &mockBlockGate{}
	gate := newGate(auth.AdminGateConfig{Password: "correct horse"}, blocks, recorder)

	for i := 0; i < 3; i++ {
		err := gate.Authenticate(context.Background(), "203.0.113.7", "wrong guess!!", "")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	}

	// The throttle now rejects even the right password
	err := gate.Authenticate(context.Background(), "203.0.113.7", "correct horse", "")
	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.Greater(t, gate.RetryAfter("203.0.113.7"), time.Duration(0))

	// The last failure escalated to a persisted block
	assert.Contains(t, blocks.blockCalls, models.BlockReasonAdminBruteForce)
}

func TestAdminGate_BcryptHashTakesPrecedence(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	gate := newGate(auth.AdminGateConfig{
		Password:     "ignored plain value",
		PasswordHash: string(hash),
	}, &mockBlockGate{}, &mockRecorder{})

	assert.NoError(t, gate.Authenticate(context.Background(), "203.0.113.7", "correct horse", ""))
	assert.ErrorIs(t, gate.Authenticate(context.Background(), "203.0.113.7", "ignored plain value", ""), models.ErrUnauthorized)
}

func TestAdminGate_TOTPSecondFactor(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	gate := newGate(auth.AdminGateConfig{
		Password:   "correct horse",
		TOTPSecret: secret,
	}, &mockBlockGate{}, &mockRecorder{})

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	assert.NoError(t, gate.Authenticate(context.Background(), "203.0.113.7", "correct horse", code))
	assert.ErrorIs(t, gate.Authenticate(context.Background(), "203.0.113.8", "correct horse", "000000"), models.ErrUnauthorized)
}

func TestAdminGate_VerifySharedSecret(t *testing.T) {
	gate := newGate(auth.AdminGateConfig{Password: "correct horse"}, &mockBlockGate{}, &mockRecorder{})

	assert.True(t, gate.VerifySharedSecret("correct horse"))
	assert.False(t, gate.VerifySharedSecret("wrong guess!!"))
	assert.False(t, gate.VerifySharedSecret(""))

	unconfigured := newGate(auth.AdminGateConfig{}, &mockBlockGate{}, &mockRecorder{})
	assert.False(t, unconfigured.VerifySharedSecret(""))
}
