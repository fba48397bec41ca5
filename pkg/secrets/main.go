// Package secrets keeps the credentials network power backends log in with.
// Entries are JSON encoded Credentials filed under a port's credentials id
// (or its name), with DEFAULT_KEY as the shared fallback.
package secrets

import (
	"errors"
	"fmt"
)

// DEFAULT_KEY holds the credentials used when a port has no entry of its
// own.
const DEFAULT_KEY = "default"

// ErrNotFound is wrapped by every store when a secret id has no entry.
var ErrNotFound = errors.New("no secret found")

type SecretStore interface {
	GetSecretByID(secretID string) (string, error)
	StoreSecretByID(secretID, secret string) error
	ListSecrets() (map[string]string, error)
	RemoveSecretByID(secretID string) error
}

func notFound(secretID string) error {
	return fmt.Errorf("%w for %s", ErrNotFound, secretID)
}
