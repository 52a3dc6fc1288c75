package auth

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Default secret configuration.
const (
	DefaultSecretPrefix       = "orion_"
	DefaultSecretLength       = 32
	DefaultSecretPrefixLength = 12
)

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// SecretConfig holds configuration for secret generation.
type SecretConfig struct {
	// Prefix is prepended to all secrets (e.g., "orion_whsec_").
	// Defaults to "orion_" if empty.
	Prefix string

	// RandomLength is the length of the random part.
	// Defaults to 32 if zero.
	RandomLength int

	// PrefixLength is how many characters to show in the display prefix.
	// Defaults to 12 if zero.
	PrefixLength int
}

func (c SecretConfig) prefix() string {
	if c.Prefix == "" {
		return DefaultSecretPrefix
	}
	return c.Prefix
}

func (c SecretConfig) randomLength() int {
	if c.RandomLength == 0 {
		return DefaultSecretLength
	}
	return c.RandomLength
}

func (c SecretConfig) prefixLength() int {
	if c.PrefixLength == 0 {
		return DefaultSecretPrefixLength
	}
	return c.PrefixLength
}

// GeneratedSecret contains a new secret. The plaintext is only available
// at creation time; persist the hash.
type GeneratedSecret struct {
	// ID is a unique identifier for the secret.
	ID string

	// Secret is the full plaintext (e.g., "orion_whsec_xxxx...").
	Secret string

	// Prefix is the display prefix (e.g., "orion_whsec_...").
	Prefix string

	// Hash is the SHA-256 hash of the full secret for storage.
	Hash string
}

// GenerateSecret creates a new webhook or trigger secret.
func GenerateSecret(cfg SecretConfig) (*GeneratedSecret, error) {
	random, err := nanoid.Generate(base62Alphabet, cfg.randomLength())
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	secret := cfg.prefix() + random

	prefixLen := cfg.prefixLength()
	var displayPrefix string
	if len(secret) > prefixLen {
		displayPrefix = secret[:prefixLen] + "..."
	} else {
		displayPrefix = secret
	}

	id, err := nanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate secret id: %w", err)
	}

	return &GeneratedSecret{
		ID:     "sec_" + id,
		Secret: secret,
		Prefix: displayPrefix,
		Hash:   HashSecret(secret),
	}, nil
}

// ValidateSecretFormat checks if a string matches the expected secret format.
func ValidateSecretFormat(secret string, cfg SecretConfig) bool {
	prefix := cfg.prefix()
	expectedLen := len(prefix) + cfg.randomLength()
	return strings.HasPrefix(secret, prefix) && len(secret) == expectedLen
}

// DisplayPrefix gets the display prefix from a full secret.
func DisplayPrefix(secret string, cfg SecretConfig) string {
	prefixLen := cfg.prefixLength()
	if len(secret) <= prefixLen {
		return secret
	}
	return secret[:prefixLen] + "..."
}
