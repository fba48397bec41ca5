// Package bmc switches a whole node through its BMC using bmclib, which
// tries the IPMI and Redfish providers it finds. The index is ignored.
package bmc

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	bmclib "github.com/bmc-toolbox/bmclib/v2"
	"github.com/go-logr/logr"
)

const (
	Model          = "bmc"
	DefaultTimeout = 30 * time.Second
)

func init() {
	power.Register(power.BackendInfo{
		Model:       Model,
		Family:      power.FamilyHostPort,
		DefaultPort: 623,
		Description: "node power through the BMC with bmclib (IPMI/Redfish providers)",
	}, New)
}

type Backend struct {
	timeout time.Duration
}

func New(opts power.BackendOptions) (power.Backend, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Backend{timeout: timeout}, nil
}

func (b *Backend) On(t power.Target) error  { return b.set(t, "on") }
func (b *Backend) Off(t power.Target) error { return b.set(t, "off") }

// Cycle asks the BMC for a native power cycle.
func (b *Backend) Cycle(t power.Target) error { return b.set(t, "cycle") }

func (b *Backend) Get(t power.Target) (bool, error) {
	var state string
	err := b.session(t, func(ctx context.Context, cl *bmclib.Client) error {
		var err error
		state, err = cl.GetPowerState(ctx)
		return err
	})
	if err != nil {
		return false, err
	}
	return ParseState(t, state)
}

// ParseState maps the power state reported by a bmclib provider ("on",
// "Off", "Chassis Power is on") to a bool. Anything else is an error.
func ParseState(t power.Target, state string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(state))
	switch {
	case s == "on" || strings.HasSuffix(s, " on"):
		return true, nil
	case s == "off" || strings.HasSuffix(s, " off"):
		return false, nil
	}
	return false, power.Unexpected(Model, t.Address(), []byte(state))
}

func (b *Backend) set(t power.Target, state string) error {
	return b.session(t, func(ctx context.Context, cl *bmclib.Client) error {
		ok, err := cl.SetPowerState(ctx, state)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("BMC did not accept power state '%s'", state)
		}
		return nil
	})
}

func (b *Backend) session(t power.Target, fn func(context.Context, *bmclib.Client) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	cl := bmclib.NewClient(t.Host, t.Username, t.Password,
		bmclib.WithLogger(logr.Discard()),
		bmclib.WithIpmitoolPort(strconv.Itoa(t.Port)),
		bmclib.WithPerProviderTimeout(b.timeout),
	)
	if err := cl.Open(ctx); err != nil {
		return &power.NetworkError{Model: Model, URL: t.Address(), Err: fmt.Errorf("failed to open BMC session: %w", err)}
	}
	defer cl.Close(ctx)

	if err := fn(ctx, cl); err != nil {
		return &power.NetworkError{Model: Model, URL: t.Address(), Err: err}
	}
	return nil
}
