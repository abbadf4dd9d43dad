package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns the hex encoded sha256 digest of a token. Session
// records store digests so a store dump never yields replayable tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
