package access

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives a stable pseudonymous device identifier from
// connection metadata: SHA-256 hex of "userAgent|ipAddress". Deterministic
// and one-way; missing inputs are treated as empty strings and still yield
// a (weak) fingerprint.
func Fingerprint(userAgent, ipAddress string) string {
	hash := sha256.Sum256([]byte(userAgent + "|" + ipAddress))
	return hex.EncodeToString(hash[:])
}
