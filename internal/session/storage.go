package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage persists the session token between runs of the client.
type Storage interface {
	// Save stores the token, replacing any previous one
	Save(token string) error

	// Load returns the stored token, or ErrNoSession if none exists
	Load() (string, error)

	// Clear removes the stored token. Clearing an empty store is not
	// an error.
	Clear() error
}

// ErrNoSession is returned by Load when no token is stored
var ErrNoSession = errors.New("no stored session")

// fileStorage keeps the token in a single file readable only by the
// owner.
type fileStorage struct {
	path string
}

// NewFileStorage creates a storage backed by the file at path
func NewFileStorage(path string) Storage {
	return &fileStorage{path: path}
}

func (f *fileStorage) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (f *fileStorage) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("read session file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

func (f *fileStorage) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// memoryStorage holds the token in memory only, for tests and
// throwaway sessions.
type memoryStorage struct {
	token string
}

// NewMemoryStorage creates a storage that forgets everything on exit
func NewMemoryStorage() Storage {
	return &memoryStorage{}
}

func (m *memoryStorage) Save(token string) error {
	m.token = token
	return nil
}

func (m *memoryStorage) Load() (string, error) {
	if m.token == "" {
		return "", ErrNoSession
	}
	return m.token, nil
}

func (m *memoryStorage) Clear() error {
	m.token = ""
	return nil
}
