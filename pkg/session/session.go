package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrSessionNotFound indicates no saved session exists for the account
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidState indicates a nil or account-less session state
	ErrInvalidState = errors.New("invalid session state")
)

// State is one saved browser session: the cookie jar captured after a
// successful login, opaque to this package. Runs reuse it to skip the
// interactive login flow.
type State struct {
	Account   string          `json:"account"`
	Cookies   json.RawMessage `json:"cookies"`
	UserAgent string          `json:"user_agent,omitempty"`
	SavedAt   time.Time       `json:"saved_at"`
}

// Store persists session state between runs
type Store interface {
	// Save persists the session state
	Save(state *State) error
	// Load retrieves the session state for an account
	Load(account string) (*State, error)
	// Delete removes the saved session for an account
	Delete(account string) error
	// Exists checks if a session is saved for an account
	Exists(account string) bool
}

// NewStore returns the best available session store: the system keychain
// when one is reachable, otherwise an encrypted file at fallbackFile (or
// under the user config directory when empty).
func NewStore(fallbackFile string) (Store, error) {
	if store, err := NewKeyringStore(); err == nil {
		return store, nil
	}

	if fallbackFile == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		fallbackFile = filepath.Join(dir, "sessions.enc")
	}
	return NewEncryptedFileStore(fallbackFile)
}

func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	dir := filepath.Join(base, "threadscraper")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return dir, nil
}
