package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

// TokenStore persists a single Credential between runs.
// Load returns ErrNoCredential when nothing has been saved yet.
type TokenStore interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred *Credential) error
}

// FileTokenStore keeps the credential as JSON in a file readable only by
// the current user.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore returns a store backed by the file at path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the backing file path.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load reads the credential file.
func (s *FileTokenStore) Load(_ context.Context) (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	return decodeCredential(data)
}

// Save writes the credential atomically via a temp file and rename.
func (s *FileTokenStore) Save(_ context.Context, cred *Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set token file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

const keyringItemKey = "calendar-token"

// KeyringTokenStore keeps the credential in the OS keyring.
type KeyringTokenStore struct {
	ring keyring.Keyring
	key  string
}

// NewKeyringTokenStore wraps an opened keyring.
func NewKeyringTokenStore(ring keyring.Keyring) *KeyringTokenStore {
	return &KeyringTokenStore{ring: ring, key: keyringItemKey}
}

// OpenKeyringTokenStore opens the platform keyring under serviceName.
// The encrypted-file backend, used where no system keyring exists, lives in
// fileDir and takes its password from AGENDA_KEYRING_PASSWORD or the terminal.
func OpenKeyringTokenStore(serviceName, fileDir string) (*KeyringTokenStore, error) {
	passwordFunc := keyring.TerminalPrompt
	if pw := os.Getenv("AGENDA_KEYRING_PASSWORD"); pw != "" {
		passwordFunc = keyring.FixedStringPrompt(pw)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		KeychainTrustApplication: true,
		LibSecretCollectionName:  serviceName,
		FileDir:                  fileDir,
		FilePasswordFunc:         passwordFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return NewKeyringTokenStore(ring), nil
}

// Load reads the credential from the keyring.
func (s *KeyringTokenStore) Load(_ context.Context) (*Credential, error) {
	item, err := s.ring.Get(s.key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("failed to read keyring item: %w", err)
	}
	return decodeCredential(item.Data)
}

// Save stores the credential in the keyring.
func (s *KeyringTokenStore) Save(_ context.Context, cred *Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := s.ring.Set(keyring.Item{
		Key:         s.key,
		Data:        data,
		Label:       "agenda-extractor calendar token",
		Description: "OAuth token for the Google Calendar API",
	}); err != nil {
		return fmt.Errorf("failed to write keyring item: %w", err)
	}
	return nil
}

func decodeCredential(data []byte) (*Credential, error) {
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to decode stored credential: %w", err)
	}
	return &cred, nil
}
