// Package auth issues and verifies the API tokens the HTTP boundary
// accepts. Tokens are random secrets; only a bcrypt hash is stored, so a
// leaked state directory does not leak the token itself.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenPrefix marks engine API tokens
	TokenPrefix = "tde_sk_"

	// TokenLength is the random part of a token in bytes, hex encoded on output
	TokenLength = 32

	// bcryptCost is the cost factor for token hashing
	bcryptCost = 12
)

// GenerateToken creates a new API token.
// Format: tde_sk_<64 hex chars>
func GenerateToken() (string, error) {
	bytes := make([]byte, TokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return TokenPrefix + hex.EncodeToString(bytes), nil
}

// HashToken creates a bcrypt hash of a token
func HashToken(token string) (string, error) {
	secret := strings.TrimPrefix(token, TokenPrefix)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}

// VerifyToken checks a token against a stored hash
func VerifyToken(token, hash string) bool {
	secret := strings.TrimPrefix(token, TokenPrefix)
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// IsValidTokenFormat checks the token shape without verifying it
func IsValidTokenFormat(token string) bool {
	if !strings.HasPrefix(token, TokenPrefix) {
		return false
	}
	secret := strings.TrimPrefix(token, TokenPrefix)
	if len(secret) != TokenLength*2 {
		return false
	}
	_, err := hex.DecodeString(secret)
	return err == nil
}

// MaskToken returns a display-safe version of a token
func MaskToken(token string) string {
	if len(token) < len(TokenPrefix)+8 {
		return "****"
	}
	return token[:len(TokenPrefix)+8] + "****...****"
}
