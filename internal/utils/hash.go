package utils // package utils provides small hashing helpers shared by services

import (
	"crypto/sha256" // SHA-256 digest for refresh tokens
	"crypto/subtle" // constant-time comparison
	"encoding/hex"  // hex encoding of the digest
)

// HashToken returns the SHA-256 hash of a raw token as a hex string.  Only
// this digest is persisted, so a leaked users row cannot be replayed.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// EqualHash compares two hex digests in constant time.  Empty values never
// match, which keeps a logged-out slot from accepting anything.
func EqualHash(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
