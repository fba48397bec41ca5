package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the service name secrets are filed under in the
// OS keyring.
const DefaultKeyringService = "powerctl"

// the keyring cannot enumerate entries, so ids are tracked in one extra entry
const keyringIndex = "__index__"

// KeyringStore keeps secrets in the OS keyring (Secret Service, macOS
// Keychain or Windows Credential Manager) instead of a local file.
type KeyringStore struct {
	mu      sync.Mutex
	service string
}

func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

func (k *KeyringStore) GetSecretByID(secretID string) (string, error) {
	secret, err := keyring.Get(k.service, secretID)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", notFound(secretID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read secret from keyring: %w", err)
	}
	return secret, nil
}

func (k *KeyringStore) StoreSecretByID(secretID, secret string) error {
	if secretID == keyringIndex {
		return fmt.Errorf("secret id %s is reserved", secretID)
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Set(k.service, secretID, secret); err != nil {
		return fmt.Errorf("failed to store secret in keyring: %w", err)
	}
	ids, err := k.ids()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == secretID {
			return nil
		}
	}
	return k.saveIDs(append(ids, secretID))
}

func (k *KeyringStore) ListSecrets() (map[string]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	ids, err := k.ids()
	if err != nil {
		return nil, err
	}
	secrets := make(map[string]string, len(ids))
	for _, id := range ids {
		secret, err := keyring.Get(k.service, id)
		if err != nil {
			// removed outside of powerctl
			continue
		}
		secrets[id] = secret
	}
	return secrets, nil
}

func (k *KeyringStore) RemoveSecretByID(secretID string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Delete(k.service, secretID); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return notFound(secretID)
		}
		return fmt.Errorf("failed to remove secret from keyring: %w", err)
	}
	ids, err := k.ids()
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != secretID {
			kept = append(kept, id)
		}
	}
	return k.saveIDs(kept)
}

func (k *KeyringStore) ids() ([]string, error) {
	raw, err := keyring.Get(k.service, keyringIndex)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keyring index: %w", err)
	}
	return ids, nil
}

func (k *KeyringStore) saveIDs(ids []string) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return keyring.Set(k.service, keyringIndex, string(b))
}
