package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenFile keeps the terminal client's access token in a single file.
// It satisfies backend.TokenSource. Presence of the file is the only
// "signed in" signal.
type TokenFile struct {
	path string

	mu    sync.Mutex
	token string
}

// OpenTokenFile reads path if it exists. A missing file means signed out.
func OpenTokenFile(path string) (*TokenFile, error) {
	f := &TokenFile{path: path}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		f.token = strings.TrimSpace(string(data))
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	return f, nil
}

func (f *TokenFile) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *TokenFile) Authenticated() bool {
	return f.Token() != ""
}

// Save writes token with owner-only permissions.
func (f *TokenFile) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	f.token = token
	return nil
}

// Clear forgets the token and removes the file.
func (f *TokenFile) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}
