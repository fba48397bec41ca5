package power

import (
	"fmt"
	"strings"
)

// ConfigurationError is returned before any I/O happens when a port
// descriptor cannot be turned into a working driver: an unknown backend
// model, a host template that is not a valid URL, an unparsable command
// string and so on.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" '%s'", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ExecutionError is returned when an external command exits with a
// non-zero status or does not finish before the runner's timeout. The
// captured output is kept for diagnostics.
type ExecutionError struct {
	Argv     []string
	Output   []byte
	ExitCode int
	Timeout  bool
}

func (e *ExecutionError) Error() string {
	cmd := strings.Join(e.Argv, " ")
	if e.Timeout {
		return fmt.Sprintf("command '%s' timed out", cmd)
	}
	return fmt.Sprintf("command '%s' exited with status %d", cmd, e.ExitCode)
}

// NetworkError wraps transport failures and unexpected responses from a
// network backend. StatusCode is zero when no response was received.
type NetworkError struct {
	Model      string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("%s backend request", e.Model)
	if e.URL != "" {
		msg += fmt.Sprintf(" to %s", e.URL)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" returned status code %d", e.StatusCode)
	} else {
		msg += " failed"
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }
