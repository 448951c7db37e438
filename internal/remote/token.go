package remote

import (
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the auth session token between CLI runs, standing in
// for the cookie jar a browser keeps.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store at the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load returns the stored token, or empty when no session is saved.
func (ts *TokenStore) Load() string {
	data, err := os.ReadFile(ts.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Save writes the token with owner-only permissions.
func (ts *TokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(ts.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(ts.path, []byte(token+"\n"), 0o600)
}

// Clear removes the saved session.
func (ts *TokenStore) Clear() error {
	err := os.Remove(ts.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
