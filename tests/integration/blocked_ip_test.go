package integration

import (
	"context"
	"testing"
	"time"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	"github.com/pawtraitstudio/pawtrait-api/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockedIPRepository_EscalatesToPermanent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	repo := repositories.NewBlockedIPRepository(testDB.DB)
	ipHash := "deadbeefdeadbeef"

	// Five violations with temporary durations; the store escalates the
	// fifth to permanent regardless of the requested expiry
	for i := 1; i <= 5; i++ {
		expiresAt := time.Now().Add(time.Hour)
		block, err := repo.Upsert(ctx, ipHash, models.BlockReasonRateAbuse, &expiresAt)
		require.NoError(t, err)
		assert.Equal(t, i, block.ViolationCount)

		if i < models.PermanentBlockThreshold {
			assert.NotNil(t, block.ExpiresAt, "violation %d should stay temporary", i)
		} else {
			assert.Nil(t, block.ExpiresAt, "violation %d should be permanent", i)
		}
	}

	blocked, err := repo.IsBlocked(ctx, ipHash)
	require.NoError(t, err)
	assert.True(t, blocked)

	// The escalation persists: another temporary block request cannot
	// downgrade it below the threshold count
	expiresAt := time.Now().Add(time.Minute)
	block, err := repo.Upsert(ctx, ipHash, models.BlockReasonHoneypot, &expiresAt)
	require.NoError(t, err)
	assert.Equal(t, 6, block.ViolationCount)
	assert.Nil(t, block.ExpiresAt)
}

func TestBlockedIPRepository_ExpiredBlockStopsMatching(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	repo := repositories.NewBlockedIPRepository(testDB.DB)
	ipHash := "cafebabecafebabe"

	expired := time.Now().Add(-time.Minute)
	block, err := repo.Upsert(ctx, ipHash, models.BlockReasonManual, &expired)
	require.NoError(t, err)
	assert.Equal(t, 1, block.ViolationCount)

	blocked, err := repo.IsBlocked(ctx, ipHash)
	require.NoError(t, err)
	assert.False(t, blocked)

	// The row survives as audit trail even though it no longer matches
	stored, err := repo.GetByIPHash(ctx, ipHash)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ViolationCount)
}

func TestBlockedIPRepository_PermanentBlockMatchesImmediately(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	repo := repositories.NewBlockedIPRepository(testDB.DB)

	_, err = repo.Upsert(ctx, "feedfacefeedface", models.BlockReasonManual, nil)
	require.NoError(t, err)

	blocked, err := repo.IsBlocked(ctx, "feedfacefeedface")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = repo.IsBlocked(ctx, "0000000000000000")
	require.NoError(t, err)
	assert.False(t, blocked)
}
