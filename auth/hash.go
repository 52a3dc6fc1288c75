package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSecret creates a SHA-256 hash of a webhook or trigger secret.
// Store the hash instead of the plaintext; verify by hashing the
// incoming value and comparing.
func HashSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// Fingerprint returns a short hash prefix safe to write to logs.
// It identifies a secret without revealing it.
func Fingerprint(secret string) string {
	return HashSecret(secret)[:12]
}
