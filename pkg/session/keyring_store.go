package session

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "threadscraper"
	keyringPrefix  = "session_"
)

// KeyringStore implements Store using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a keychain-backed session store, probing the
// keychain first so callers can fall back when none is reachable.
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Save persists the session state to the system keychain
func (k *KeyringStore) Save(state *State) error {
	if state == nil || state.Account == "" {
		return ErrInvalidState
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := keyring.Set(keyringService, keyringPrefix+state.Account, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return nil
}

// Load retrieves session state from the system keychain
func (k *KeyringStore) Load(account string) (*State, error) {
	if account == "" {
		return nil, ErrInvalidState
	}

	data, err := keyring.Get(keyringService, keyringPrefix+account)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &state, nil
}

// Delete removes session state from the system keychain
func (k *KeyringStore) Delete(account string) error {
	if account == "" {
		return ErrInvalidState
	}

	if err := keyring.Delete(keyringService, keyringPrefix+account); err != nil {
		if err == keyring.ErrNotFound {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return nil
}

// Exists checks if a session is saved for the account
func (k *KeyringStore) Exists(account string) bool {
	if account == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+account)
	return err == nil
}
