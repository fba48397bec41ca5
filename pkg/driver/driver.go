// Package driver presents every power control mechanism behind the same
// on/off/cycle/get contract. A driver keeps no power state: Get always asks
// the underlying mechanism. Drivers are not safe for concurrent use and
// callers serialize operations per port.
package driver

import (
	"net/http"
	"time"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/OpenCHAMI/powerctl/pkg/runner"
	"github.com/OpenCHAMI/powerctl/pkg/secrets"
)

// Driver switches a single port. Get reports whether the port is on.
type Driver interface {
	On() error
	Off() error
	Cycle() error
	Get() (bool, error)
}

// Executor runs an argument vector to completion. *runner.Runner is the
// production implementation.
type Executor interface {
	Execute(argv []string) (*runner.Result, error)
}

type options struct {
	executor       Executor
	sleep          func(time.Duration)
	store          secrets.SecretStore
	prompter       Prompter
	backendOptions power.BackendOptions
}

type Option func(*options)

func WithExecutor(executor Executor) Option {
	return func(o *options) {
		o.executor = executor
	}
}

// WithSleep replaces time.Sleep for the delay of a composed cycle.
func WithSleep(sleep func(time.Duration)) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}

func WithSecretStore(store secrets.SecretStore) Option {
	return func(o *options) {
		o.store = store
	}
}

func WithPrompter(prompter Prompter) Option {
	return func(o *options) {
		o.prompter = prompter
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.backendOptions.Client = client
	}
}

func WithBackendOptions(opts power.BackendOptions) Option {
	return func(o *options) {
		client := o.backendOptions.Client
		o.backendOptions = opts
		if opts.Client == nil {
			o.backendOptions.Client = client
		}
	}
}

// New() builds the driver matching the port's mode. Everything that can be
// checked without I/O is checked here: the port fields, the command
// strings and, for network ports, the backend model and host.
func New(port power.Port, opts ...Option) (Driver, error) {
	o := &options{
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := port.Validate(); err != nil {
		return nil, err
	}
	switch port.ResolvedMode() {
	case power.ModeExternal:
		if o.executor == nil {
			o.executor = runner.New()
		}
		d, err := NewExternal(port, o.executor, o.sleep)
		if err != nil {
			return nil, err
		}
		return d, nil
	case power.ModeNetwork:
		d, err := NewNetwork(port, o.backendOptions, o.store, o.sleep)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		if o.prompter == nil {
			o.prompter = NewConsolePrompter(nil, nil)
		}
		return NewManual(port, o.prompter), nil
	}
}

// cycle composes off, delay, on. A failing off skips the on phase.
func cycle(d Driver, delay time.Duration, sleep func(time.Duration)) error {
	if err := d.Off(); err != nil {
		return err
	}
	sleep(delay)
	return d.On()
}
