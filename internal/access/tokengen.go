package access

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateToken returns a random 64-character hex token (32 bytes of
// entropy). The token string is the sole capability needed to redeem access.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
