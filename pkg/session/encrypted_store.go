package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// EncryptedFileStore implements Store using an AES-GCM encrypted file,
// for systems without a usable keychain.
type EncryptedFileStore struct {
	filepath   string
	passphrase string
	mu         sync.RWMutex
}

// NewEncryptedFileStore creates an encrypted file-based session store
func NewEncryptedFileStore(filePath string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(filePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	store := &EncryptedFileStore{filepath: filePath}

	passphrase, err := store.getPassphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	store.passphrase = passphrase

	return store, nil
}

// Save persists the session state to the encrypted file
func (e *EncryptedFileStore) Save(state *State) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if state == nil || state.Account == "" {
		return ErrInvalidState
	}

	sessions, _, err := e.loadSessions()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load existing sessions: %w", err)
	}
	if sessions == nil {
		sessions = make(map[string]State)
	}

	sessions[state.Account] = *state
	return e.saveSessions(sessions)
}

// Load retrieves session state from the encrypted file
func (e *EncryptedFileStore) Load(account string) (*State, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if account == "" {
		return nil, ErrInvalidState
	}

	sessions, _, err := e.loadSessions()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	state, ok := sessions[account]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return &state, nil
}

// Delete removes session state from the encrypted file
func (e *EncryptedFileStore) Delete(account string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if account == "" {
		return ErrInvalidState
	}

	sessions, _, err := e.loadSessions()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	if _, ok := sessions[account]; !ok {
		return ErrSessionNotFound
	}

	delete(sessions, account)

	if len(sessions) == 0 {
		return os.Remove(e.filepath)
	}
	return e.saveSessions(sessions)
}

// Exists checks if a session is saved for the account
func (e *EncryptedFileStore) Exists(account string) bool {
	state, err := e.Load(account)
	return err == nil && state != nil
}

type encryptedFile struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
}

// loadSessions reads and decrypts the session file. The salt is returned
// so callers that rewrite the file could reuse it; saveSessions currently
// always generates a fresh one.
func (e *EncryptedFileStore) loadSessions() (map[string]State, string, error) {
	content, err := os.ReadFile(e.filepath)
	if err != nil {
		return nil, "", err
	}

	var fileData encryptedFile
	if err := json.Unmarshal(content, &fileData); err != nil {
		return nil, "", fmt.Errorf("failed to parse file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(fileData.Salt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode salt: %w", err)
	}

	encryptedBytes, err := base64.StdEncoding.DecodeString(fileData.Encrypted)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode encrypted data: %w", err)
	}

	key := pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)

	decrypted, err := decrypt(encryptedBytes, key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decrypt data: %w", err)
	}

	var sessions map[string]State
	if err := json.Unmarshal(decrypted, &sessions); err != nil {
		return nil, "", fmt.Errorf("failed to parse sessions: %w", err)
	}

	return sessions, fileData.Salt, nil
}

// saveSessions encrypts and writes the session file atomically.
func (e *EncryptedFileStore) saveSessions(sessions map[string]State) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)

	sessionsJSON, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	encrypted, err := encrypt(sessionsJSON, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt data: %w", err)
	}

	fileData := encryptedFile{
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(encrypted),
		Version:   1,
		Modified:  time.Now(),
	}

	content, err := json.MarshalIndent(fileData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal file data: %w", err)
	}

	tempFile := e.filepath + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tempFile, e.filepath)
}

// getPassphrase resolves the encryption passphrase: the environment first,
// then a generated passphrase persisted next to the store.
func (e *EncryptedFileStore) getPassphrase() (string, error) {
	if pass := os.Getenv("THREADSCRAPER_PASSPHRASE"); pass != "" {
		return pass, nil
	}

	passphraseFile := filepath.Join(filepath.Dir(e.filepath), ".passphrase")

	if content, err := os.ReadFile(passphraseFile); err == nil && len(content) > 0 {
		return string(content), nil
	}

	passphrase := generatePassphrase()
	if err := os.WriteFile(passphraseFile, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}

	return passphrase, nil
}

func generatePassphrase() string {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}

// encrypt seals data with AES-GCM, nonce prepended.
func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
