package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadJWTSecret() tries to load the daemon's token signing secret from an
// environment variable, a file, or the config in that order, falling back
// to the next option until all options are exhausted.
//
// Returns an empty string with no error when nothing is configured, which
// leaves the daemon without authentication.
func LoadJWTSecret(path string) (string, error) {
	// try to load the secret from env var
	if secret := os.Getenv("POWERCTL_JWT_SECRET"); secret != "" {
		return secret, nil
	}

	// try reading the secret from a file
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read JWT secret file: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	return viper.GetString("daemon.jwt-secret"), nil
}
