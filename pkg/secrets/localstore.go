package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// LocalSecretStore keeps sealed secrets in a JSON file that maps secret ids
// to hex encoded ciphertext. The file is rewritten on every change.
type LocalSecretStore struct {
	mu     sync.RWMutex
	sealer *sealer
	path   string
	sealed map[string]string
}

// NewLocalSecretStore opens the store at path. A missing file is an error
// unless create is set.
func NewLocalSecretStore(masterKeyHex, path string, create bool) (*LocalSecretStore, error) {
	s, err := newSealer(masterKeyHex)
	if err != nil {
		return nil, err
	}
	sealed, err := readSealed(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && create:
		sealed = map[string]string{}
	case err != nil:
		return nil, err
	}
	return &LocalSecretStore{sealer: s, path: path, sealed: sealed}, nil
}

// OpenStore() opens or creates the local store at path with the master key
// from the MASTER_KEY environment variable.
func OpenStore(path string) (SecretStore, error) {
	if path == "" {
		return nil, fmt.Errorf("path to secret store required")
	}
	masterKey := os.Getenv("MASTER_KEY")
	if masterKey == "" {
		return nil, fmt.Errorf("MASTER_KEY environment variable not set")
	}
	store, err := NewLocalSecretStore(masterKey, path, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open local secret store: %w", err)
	}
	return store, nil
}

func (l *LocalSecretStore) GetSecretByID(secretID string) (string, error) {
	l.mu.RLock()
	sealed, ok := l.sealed[secretID]
	l.mu.RUnlock()
	if !ok {
		return "", notFound(secretID)
	}
	plaintext, err := l.sealer.open(secretID, sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (l *LocalSecretStore) StoreSecretByID(secretID, secret string) error {
	sealed, err := l.sealer.seal(secretID, []byte(secret))
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sealed[secretID] = sealed
	return l.save()
}

// ListSecrets returns every secret decrypted. Entries that cannot be
// opened with the current master key are skipped.
func (l *LocalSecretStore) ListSecrets() (map[string]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	secrets := make(map[string]string, len(l.sealed))
	for id, sealed := range l.sealed {
		plaintext, err := l.sealer.open(id, sealed)
		if err != nil {
			log.Warn().Err(err).Str("id", id).Msg("skipping secret")
			continue
		}
		secrets[id] = string(plaintext)
	}
	return secrets, nil
}

func (l *LocalSecretStore) RemoveSecretByID(secretID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.sealed[secretID]; !ok {
		return notFound(secretID)
	}
	delete(l.sealed, secretID)
	return l.save()
}

// save writes a temporary file next to the store and renames it over the
// old one. Caller holds mu.
func (l *LocalSecretStore) save() error {
	b, err := json.MarshalIndent(l.sealed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create secrets file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("failed to replace secrets file: %w", err)
	}
	return nil
}

func readSealed(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sealed := map[string]string{}
	if len(b) == 0 {
		return sealed, nil
	}
	if err := json.Unmarshal(b, &sealed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal secrets file %s: %w", path, err)
	}
	return sealed, nil
}
