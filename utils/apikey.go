package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	apiKeyPrefixLen = 12
	apiKeySecretLen = 24 // random bytes, hex-encoded
)

// GenerateAPIKey mints a new API token. The full token is returned once to
// the caller; only its bcrypt hash plus the clear-text prefix (for lookup)
// are meant to be stored.
func GenerateAPIKey() (token, prefix, hash string, err error) {
	raw := make([]byte, apiKeySecretLen)
	if _, err = rand.Read(raw); err != nil {
		return "", "", "", fmt.Errorf("failed to generate API key: %w", err)
	}
	token = "zvk_" + hex.EncodeToString(raw)
	prefix = token[:apiKeyPrefixLen]

	digest, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to hash API key: %w", err)
	}
	return token, prefix, string(digest), nil
}

// APIKeyPrefix extracts the lookup prefix of a presented token.
func APIKeyPrefix(token string) string {
	if len(token) < apiKeyPrefixLen {
		return ""
	}
	return token[:apiKeyPrefixLen]
}

// CheckAPIKey compares a presented token against a stored bcrypt hash.
func CheckAPIKey(token, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
