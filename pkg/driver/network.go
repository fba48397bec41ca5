package driver

import (
	"time"

	"github.com/OpenCHAMI/powerctl/internal/url"
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/OpenCHAMI/powerctl/pkg/secrets"
	"github.com/rs/zerolog/log"
)

// Network switches a port through a registered backend.
type Network struct {
	port    power.Port
	info    power.BackendInfo
	backend power.Backend
	store   secrets.SecretStore
	sleep   func(time.Duration)
}

// NewNetwork() resolves the port's model and checks the host against the
// backend family. An unregistered model or a malformed host is a
// configuration error and no request is made.
func NewNetwork(port power.Port, opts power.BackendOptions, store secrets.SecretStore, sleep func(time.Duration)) (*Network, error) {
	factory, info, err := power.Lookup(port.Model)
	if err != nil {
		return nil, err
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	d := &Network{port: port, info: info, store: store, sleep: sleep}

	// resolving the target once validates the host without any I/O
	target, err := d.address()
	if err != nil {
		return nil, err
	}
	backend, err := factory(opts)
	if err != nil {
		return nil, err
	}
	if v, ok := backend.(power.TargetValidator); ok {
		if err := v.Validate(target); err != nil {
			return nil, err
		}
	}
	d.backend = backend
	return d, nil
}

func (d *Network) On() error {
	t, err := d.target()
	if err != nil {
		return err
	}
	return d.backend.On(t)
}

func (d *Network) Off() error {
	t, err := d.target()
	if err != nil {
		return err
	}
	return d.backend.Off(t)
}

// Cycle uses the backend's own power cycle when it has one.
func (d *Network) Cycle() error {
	c, ok := d.backend.(power.Cycler)
	if !ok {
		return cycle(d, d.port.CycleDelay(), d.sleep)
	}
	t, err := d.target()
	if err != nil {
		return err
	}
	return c.Cycle(t)
}

func (d *Network) Get() (bool, error) {
	t, err := d.target()
	if err != nil {
		return false, err
	}
	return d.backend.Get(t)
}

// Info describes the backend serving the port.
func (d *Network) Info() power.BackendInfo {
	return d.info
}

// target is rebuilt on every call; the normalized URL is never cached.
func (d *Network) target() (power.Target, error) {
	t, err := d.address()
	if err != nil {
		return t, err
	}
	creds, err := secrets.GetCredentials(d.store, d.credentialsID())
	if err != nil {
		return t, &power.ConfigurationError{Field: "credentials", Value: d.credentialsID(), Err: err}
	}
	t.Username, t.Password = creds.Username, creds.Password
	log.Trace().Str("port", d.port.Name).Str("url", power.Redact(t.URL)).Str("host", t.Host).Msg("resolved target")
	return t, nil
}

func (d *Network) address() (power.Target, error) {
	t := power.Target{Index: d.port.ResolvedIndex()}
	switch d.info.Family {
	case power.FamilyURL:
		uri, err := url.Normalize(d.port.Host, t.Index)
		if err != nil {
			return t, err
		}
		t.URL = uri
	default:
		host, port, err := power.SplitHostPort(d.port.Host, d.info.DefaultPort)
		if err != nil {
			return t, err
		}
		t.Host, t.Port = host, port
	}
	return t, nil
}

func (d *Network) credentialsID() string {
	if d.port.Credentials != "" {
		return d.port.Credentials
	}
	return d.port.Name
}
