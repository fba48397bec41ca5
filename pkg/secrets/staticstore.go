package secrets

import (
	"encoding/json"
	"fmt"
)

// StaticStore answers every lookup with the same credentials. It backs
// --username and --password and cannot be modified.
type StaticStore struct {
	Credentials Credentials
}

func NewStaticStore(username, password string) *StaticStore {
	return &StaticStore{Credentials: Credentials{Username: username, Password: password}}
}

func (s *StaticStore) GetSecretByID(secretID string) (string, error) {
	b, err := json.Marshal(s.Credentials)
	if err != nil {
		return "", fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return string(b), nil
}

func (s *StaticStore) StoreSecretByID(secretID, secret string) error {
	return fmt.Errorf("static credentials cannot be changed")
}

func (s *StaticStore) ListSecrets() (map[string]string, error) {
	secret, err := s.GetSecretByID(DEFAULT_KEY)
	if err != nil {
		return nil, err
	}
	return map[string]string{DEFAULT_KEY: secret}, nil
}

func (s *StaticStore) RemoveSecretByID(secretID string) error {
	return fmt.Errorf("static credentials cannot be changed")
}
