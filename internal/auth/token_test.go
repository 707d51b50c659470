package auth_test

import (
	"testing"
	"time"

	"github.com/pawtraitstudio/pawtrait-api/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenManager_MintAndVerify(t *testing.T) {
	manager := auth.NewSessionTokenManager("a-long-signing-secret-for-tests!", time.Hour)

	token, err := manager.Mint()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, manager.Verify(token))
}

func TestSessionTokenManager_ExpiredTokenRejected(t *testing.T) {
	manager := auth.NewSessionTokenManager("a-long-signing-secret-for-tests!", -time.Minute)

	token, err := manager.Mint()
	require.NoError(t, err)

	assert.Error(t, manager.Verify(token))
}

func TestSessionTokenManager_WrongSecretRejected(t *testing.T) {
	minter := auth.NewSessionTokenManager("a-long-signing-secret-for-tests!", time.Hour)
	verifier := auth.NewSessionTokenManager("a-different-secret-entirely!!!!!", time.Hour)

	token, err := minter.Mint()
	require.NoError(t, err)

	assert.Error(t, verifier.Verify(token))
}

func TestSessionTokenManager_GarbageRejected(t *testing.T) {
	manager := auth.NewSessionTokenManager("a-long-signing-secret-for-tests!", time.Hour)

	assert.Error(t, manager.Verify("not.a.token"))
	assert.Error(t, manager.Verify(""))
}

func TestSessionTokenManager_EmptySecretCannotMint(t *testing.T) {
	manager := auth.NewSessionTokenManager("", time.Hour)

	_, err := manager.Mint()
	assert.Error(t, err)
}
