package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *EncryptedFileStore {
	t.Helper()
	t.Setenv("THREADSCRAPER_PASSPHRASE", "test-passphrase")

	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "sessions.enc"))
	require.NoError(t, err)
	return store
}

func TestEncryptedStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	state := &State{
		Account:   "janedoe",
		Cookies:   json.RawMessage(`[{"name":"sessionid","value":"abc"}]`),
		UserAgent: "Mozilla/5.0",
		SavedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.Save(state))

	loaded, err := store.Load("janedoe")
	require.NoError(t, err)
	assert.Equal(t, state.Account, loaded.Account)
	assert.JSONEq(t, string(state.Cookies), string(loaded.Cookies))
	assert.Equal(t, state.UserAgent, loaded.UserAgent)
}

func TestEncryptedStoreMissingSession(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("nobody")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, store.Exists("nobody"))
}

func TestEncryptedStoreDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&State{Account: "a", Cookies: json.RawMessage(`[]`)}))
	require.NoError(t, store.Save(&State{Account: "b", Cookies: json.RawMessage(`[]`)}))

	require.NoError(t, store.Delete("a"))
	assert.False(t, store.Exists("a"))
	assert.True(t, store.Exists("b"))

	// Deleting the last session removes the file entirely.
	require.NoError(t, store.Delete("b"))
	_, err := os.Stat(store.filepath)
	assert.True(t, os.IsNotExist(err))
}

func TestEncryptedStoreRejectsInvalidState(t *testing.T) {
	store := newTestStore(t)

	assert.ErrorIs(t, store.Save(nil), ErrInvalidState)
	assert.ErrorIs(t, store.Save(&State{}), ErrInvalidState)
}

func TestEncryptedStoreFileIsOpaque(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&State{
		Account: "janedoe",
		Cookies: json.RawMessage(`[{"name":"sessionid","value":"supersecret"}]`),
	}))

	raw, err := os.ReadFile(store.filepath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "supersecret")
	assert.NotContains(t, string(raw), "janedoe")
}
