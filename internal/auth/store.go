package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// storedToken is the persisted form: the hash, never the secret
type storedToken struct {
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists the API token hash under the engine state directory
type Store struct {
	path string
}

// NewStore creates a store writing to path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Issue generates a new token, persists its hash, and returns the raw
// token. The raw token is shown once; it cannot be recovered later.
func (s *Store) Issue() (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	hash, err := HashToken(token)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return "", fmt.Errorf("create auth directory: %w", err)
	}

	data, err := json.MarshalIndent(storedToken{Hash: hash, CreatedAt: time.Now()}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return "", fmt.Errorf("write token store: %w", err)
	}

	return token, nil
}

// Verify checks a presented token against the stored hash. A missing
// store means no token was issued and nothing verifies.
func (s *Store) Verify(token string) bool {
	if !IsValidTokenFormat(token) {
		return false
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return false
	}
	return VerifyToken(token, stored.Hash)
}

// Revoke deletes the stored token hash
func (s *Store) Revoke() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
