package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultKeyPrefix is the prefix for generated API keys.
	DefaultKeyPrefix = "ask_"
	// KeyLength is the length of the random part of a key (32 bytes = 256 bits).
	KeyLength = 32
	// BCryptCost is the cost factor for bcrypt hashing of stored keys.
	BCryptCost = 12
)

// GenerateAPIKey generates a new random API key with the given prefix.
func GenerateAPIKey(prefix string) (string, error) {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	randomBytes := make([]byte, KeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// HashAPIKey hashes an API key with bcrypt for storage.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), BCryptCost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyAPIKey verifies an API key against a stored bcrypt hash.
func VerifyAPIKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// VerifyAPIKeyConstantTime compares a presented key against a plain expected
// key in constant time. Used for the ADMIN_API_KEY environment variable.
func VerifyAPIKeyConstantTime(got, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// VerifyAdminKey checks a presented key against the configured admin key,
// which may be either the plaintext key or a bcrypt hash of it (as minted
// by `aerial keys generate`).
func VerifyAdminKey(got, configured string) bool {
	if strings.HasPrefix(configured, "$2") {
		return VerifyAPIKey(got, configured)
	}
	return VerifyAPIKeyConstantTime(got, configured)
}

// ExtractBearerToken extracts the bearer token from an Authorization header.
func ExtractBearerToken(authHeader string) string {
	token := strings.TrimSpace(authHeader)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
