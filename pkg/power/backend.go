package power

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Family tells the network driver how a backend addresses its device.
type Family int

const (
	// FamilyURL backends take a full URL template in Port.Host; the driver
	// normalizes it into Target.URL before every call.
	FamilyURL Family = iota
	// FamilyHostPort backends take a bare host (optionally host:port) and
	// use Target.Host, Target.Port and Target.Index directly.
	FamilyHostPort
)

func (f Family) String() string {
	switch f {
	case FamilyURL:
		return "url"
	case FamilyHostPort:
		return "host:port"
	}
	return "unknown"
}

// Target is what a backend receives for a single request.
type Target struct {
	URL      string
	Host     string
	Port     int
	Index    string
	Username string
	Password string
}

// Address returns host:port for host:port family backends.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Backend is the capability every vendor implementation provides.
type Backend interface {
	On(t Target) error
	Off(t Target) error
	Get(t Target) (bool, error)
}

// Cycler is implemented by backends with a native power cycle. Backends
// without one get off, delay, on from the driver.
type Cycler interface {
	Cycle(t Target) error
}

// TargetValidator is implemented by backends that can reject a target
// (for example an out of range outlet index) before any request is made.
type TargetValidator interface {
	Validate(t Target) error
}

// BackendInfo describes a registered backend.
type BackendInfo struct {
	Model       string `json:"model"        yaml:"model"`
	Family      Family `json:"-"            yaml:"-"`
	DefaultPort int    `json:"default_port" yaml:"default_port"`
	Description string `json:"description"  yaml:"description"`
}

// BackendOptions are handed to a factory when a network driver is built.
type BackendOptions struct {
	Client   *http.Client
	Insecure bool
	Timeout  time.Duration
}

// Factory creates a backend instance for a single driver.
type Factory func(opts BackendOptions) (Backend, error)

// SplitHostPort splits a host:port family host field, falling back to
// defaultPort when no port is given.
func SplitHostPort(host string, defaultPort int) (string, int, error) {
	h, p, err := net.SplitHostPort(host)
	if err != nil {
		// no port present
		if _, _, err2 := net.SplitHostPort(host + ":0"); err2 != nil {
			return "", 0, &ConfigurationError{Field: "host", Value: host, Err: err}
		}
		return strings.Trim(host, "[]"), defaultPort, nil
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, &ConfigurationError{Field: "host", Value: host, Reason: "invalid port"}
	}
	return h, port, nil
}
