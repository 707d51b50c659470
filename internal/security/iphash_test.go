package security_test

import (
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/pawtraitstudio/pawtrait-api/internal/security"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIPHasher_Deterministic(t *testing.T) {
	hasher := security.NewIPHasher("test-salt", testLogger())

	first := hasher.Hash("203.0.113.7")
	second := hasher.Hash("203.0.113.7")

	assert.Equal(t, first, second)
}

func TestIPHasher_SixteenHexChars(t *testing.T) {
	hasher := security.NewIPHasher("test-salt", testLogger())

	digest := hasher.Hash("203.0.113.7")

	assert.Len(t, digest, 16)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), digest)
}

func TestIPHasher_DifferentIPsDiffer(t *testing.T) {
	hasher := security.NewIPHasher("test-salt", testLogger())

	assert.NotEqual(t, hasher.Hash("203.0.113.7"), hasher.Hash("203.0.113.8"))
}

func TestIPHasher_SaltChangesDigest(t *testing.T) {
	first := security.NewIPHasher("salt-one", testLogger())
	second := security.NewIPHasher("salt-two", testLogger())

	assert.NotEqual(t, first.Hash("203.0.113.7"), second.Hash("203.0.113.7"))
}

func TestIPHasher_EmptySaltFallsBack(t *testing.T) {
	// Still deterministic: two hashers with no salt agree
	first := security.NewIPHasher("", testLogger())
	second := security.NewIPHasher("", testLogger())

	assert.Equal(t, first.Hash("203.0.113.7"), second.Hash("203.0.113.7"))
	assert.Len(t, first.Hash("203.0.113.7"), 16)
}
