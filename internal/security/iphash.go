package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

// fallbackSalt keeps hashing deterministic when IP_HASH_SALT is unset.
// Running with it is a security weakness, not a fatal error; the
// constructor logs a warning so the condition is visible.
const fallbackSalt = "pawtrait-ip-hash-v1"

// IPHasher produces one-way salted digests of client IPs so raw addresses
// never persist.
type IPHasher struct {
	salt string
}

// NewIPHasher creates an IPHasher. An empty salt falls back to a fixed
// constant and is flagged in the logs.
func NewIPHasher(salt string, logger *slog.Logger) *IPHasher {
	if salt == "" {
		logger.Warn("IP_HASH_SALT not configured, using fallback salt; hashed IPs are guessable")
		salt = fallbackSalt
	}
	return &IPHasher{salt: salt}
}

// Hash returns a deterministic 16-character hex digest of the IP.
func (h *IPHasher) Hash(ip string) string {
	sum := sha256.Sum256([]byte(h.salt + ":" + ip))
	return hex.EncodeToString(sum[:])[:16]
}
