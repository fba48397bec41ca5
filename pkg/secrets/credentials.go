package secrets

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Credentials is the JSON document stored for a PDU or BMC.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GetCredentials looks up the credentials stored under id, falling back to
// DEFAULT_KEY when there is no specific entry. Missing credentials are not
// an error since many PDUs do not need any; a store failure or an entry
// that cannot be decoded is.
func GetCredentials(store SecretStore, id string) (Credentials, error) {
	var creds Credentials
	if store == nil {
		return creds, nil
	}
	if id == "" {
		id = DEFAULT_KEY
	}

	secret, err := store.GetSecretByID(id)
	if errors.Is(err, ErrNotFound) && id != DEFAULT_KEY {
		log.Debug().Str("id", id).Msg("specific credentials not found, falling back to default")
		id = DEFAULT_KEY
		secret, err = store.GetSecretByID(id)
	}
	if errors.Is(err, ErrNotFound) {
		log.Debug().Str("id", id).Msg("no credentials found, using blank credentials")
		return creds, nil
	}
	if err != nil {
		return creds, fmt.Errorf("failed to get credentials '%s': %w", id, err)
	}

	if err := json.Unmarshal([]byte(secret), &creds); err != nil {
		return creds, fmt.Errorf("failed to unmarshal credentials '%s': %w", id, err)
	}
	return creds, nil
}

// StoreCredentials encodes and stores credentials under id.
func StoreCredentials(store SecretStore, id string, creds Credentials) error {
	b, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return store.StoreSecretByID(id, string(b))
}
