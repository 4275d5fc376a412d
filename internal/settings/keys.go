package settings

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// keyPrefix is the fixed prefix of every Riot developer and production key.
const keyPrefix = "RGAPI-"

// redactedLen is how much of a key is shown in logs: the prefix plus 4 chars.
const redactedLen = len(keyPrefix) + 4

// Errors
var (
	ErrNotConfigured = errors.New("riot api key not configured")
	ErrInvalidKey    = errors.New("invalid riot api key")
	ErrInvalidRegion = errors.New("invalid region")
)

// ValidateKey checks the key format: RGAPI-<uuid>.
func ValidateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrInvalidKey
	}
	if !strings.HasPrefix(key, keyPrefix) {
		return ErrInvalidKey
	}
	if _, err := uuid.Parse(strings.TrimPrefix(key, keyPrefix)); err != nil {
		return ErrInvalidKey
	}
	return nil
}

// Redact returns a display-safe form of the key.
func Redact(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if len(key) <= redactedLen {
		return strings.Repeat("*", len(key))
	}
	return key[:redactedLen] + "…"
}
