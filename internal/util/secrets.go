package util

import (
	"errors"
	"fmt"

	"github.com/OpenCHAMI/powerctl/pkg/secrets"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// ErrUnknownSecretsBackend is returned for a secrets.backend other than
// local or keyring.
var ErrUnknownSecretsBackend = errors.New("unknown secrets backend")

// OpenSecretStore() opens the store selected by secrets.backend: the local
// encrypted file at secrets.file (the default) or the OS keyring.
func OpenSecretStore() (secrets.SecretStore, error) {
	switch backend := viper.GetString("secrets.backend"); backend {
	case "keyring":
		return secrets.NewKeyringStore(secrets.DefaultKeyringService), nil
	case "local", "":
		store, err := secrets.OpenStore(viper.GetString("secrets.file"))
		if err != nil {
			return nil, fmt.Errorf("failed to open secrets store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w '%s' (local|keyring)", ErrUnknownSecretsBackend, backend)
	}
}

// BuildSecretStore() creates the secret store for PDU and BMC credentials.
// Credentials explicitly provided with --username and --password win;
// otherwise the configured backend is opened and a partial flag override is
// applied on top of it. A local store that cannot be opened leaves the
// credentials blank, an unknown backend is an error.
func BuildSecretStore() (secrets.SecretStore, error) {
	if viper.IsSet("username") && viper.IsSet("password") {
		log.Debug().Msg("--username and --password specified, using them for all ports")
		return secrets.NewStaticStore(viper.GetString("username"), viper.GetString("password")), nil
	}
	store, err := OpenSecretStore()
	if errors.Is(err, ErrUnknownSecretsBackend) {
		return nil, err
	}
	if err != nil {
		log.Debug().Err(err).Msg("no secrets store, credentials will be blank unless overridden by flags")
		store = nil
	}
	if !viper.IsSet("username") && !viper.IsSet("password") {
		return store, nil
	}
	// the expectation is that a flag given on the command line is used
	if viper.IsSet("username") {
		log.Info().Msg("--username passed, temporarily overriding all usernames from secret store with value")
	}
	if viper.IsSet("password") {
		log.Info().Msg("--password passed, temporarily overriding all passwords from secret store with value")
	}
	return &overrideStore{
		SecretStore: store,
		username:    viper.GetString("username"),
		password:    viper.GetString("password"),
	}, nil
}

// overrideStore replaces the username or password of every credential it
// returns without touching the underlying store.
type overrideStore struct {
	secrets.SecretStore
	username string
	password string
}

func (s *overrideStore) GetSecretByID(secretID string) (string, error) {
	var creds secrets.Credentials
	if s.SecretStore != nil {
		var err error
		if creds, err = secrets.GetCredentials(s.SecretStore, secretID); err != nil {
			return "", err
		}
	}
	if s.username != "" {
		creds.Username = s.username
	}
	if s.password != "" {
		creds.Password = s.password
	}
	static := secrets.NewStaticStore(creds.Username, creds.Password)
	return static.GetSecretByID(secretID)
}
