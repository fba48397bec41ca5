package powerctl

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/OpenCHAMI/powerctl/internal/format"
	"github.com/OpenCHAMI/powerctl/internal/util"
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/spf13/viper"
)

// LoadConfig() will load a YAML config file at the specified path. There are some general
// considerations about how this is done with spf13/viper:
//
// 1. There are intentionally no search paths set, so config path has to be set explicitly
// 2. No data will be written to the config file from the tool
// 3. Parameters passed as CLI flags and envirnoment variables should always have
// precedence over values set in the config.
func LoadConfig(path string) error {
	dir, filename, ext := util.SplitPathForViper(path)
	viper.AddConfigPath(dir)
	viper.SetConfigName(filename)
	viper.SetConfigType(ext)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to load config file: %w", err)
	}
	return nil
}

// DefaultConfigPath is used when --config is not given and the file exists.
func DefaultConfigPath() string {
	return filepath.Join(util.ConfigDir(), "config.yaml")
}

// SetDefaults() registers the default value of every config key.
func SetDefaults() {
	viper.SetDefault("ports-file", "")
	viper.SetDefault("cache", filepath.Join(util.ConfigDir(), "ports.db"))
	viper.SetDefault("timeout", 30*time.Second)
	viper.SetDefault("concurrency", 4)
	viper.SetDefault("external.timeout", 30*time.Second)
	viper.SetDefault("external.poll-interval", 100*time.Millisecond)
	viper.SetDefault("external.sentinel", "Done")
	viper.SetDefault("network.insecure", false)
	viper.SetDefault("network.cacert", "")
	viper.SetDefault("secrets.file", filepath.Join(util.ConfigDir(), "secrets.json"))
	viper.SetDefault("secrets.backend", "local")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-file", "")
	viper.SetDefault("transcript", "")
	viper.SetDefault("daemon.endpoint", "127.0.0.1:8080")
	viper.SetDefault("daemon.jwt-secret", "")
}

// LoadPorts() reads a YAML or JSON list of port descriptors and validates
// each one. Port names must be unique.
func LoadPorts(path string) ([]power.Port, error) {
	var ports []power.Port
	if err := format.ReadFile(path, &ports, format.FORMAT_YAML); err != nil {
		return nil, fmt.Errorf("failed to load ports from %s: %w", path, err)
	}
	seen := make(map[string]bool, len(ports))
	for _, port := range ports {
		if err := port.Validate(); err != nil {
			return nil, err
		}
		if seen[port.Name] {
			return nil, &power.ConfigurationError{Field: "name", Value: port.Name, Reason: "duplicate port name"}
		}
		seen[port.Name] = true
	}
	return ports, nil
}

// FindPort returns the port with the given name.
func FindPort(ports []power.Port, name string) (power.Port, bool) {
	for _, port := range ports {
		if port.Name == name {
			return port, true
		}
	}
	return power.Port{}, false
}
