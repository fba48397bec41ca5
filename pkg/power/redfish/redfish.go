// Package redfish switches a computer system through its BMC's Redfish
// service. The host is the BMC URL (https://bmc.lab) and the index selects
// the system ID; an empty index is accepted when the BMC manages a single
// system.
package redfish

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/rs/zerolog/log"
	"github.com/stmcginnis/gofish"
	"github.com/stmcginnis/gofish/redfish"
)

const Model = "redfish"

func init() {
	power.Register(power.BackendInfo{
		Model:       Model,
		Family:      power.FamilyURL,
		Description: "Redfish ComputerSystem reset via the BMC (index is the system ID)",
	}, New)
}

type Backend struct {
	client   *http.Client
	insecure bool
}

func New(opts power.BackendOptions) (power.Backend, error) {
	return &Backend{client: opts.Client, insecure: opts.Insecure}, nil
}

func (b *Backend) On(t power.Target) error  { return b.reset(t, redfish.OnResetType) }
func (b *Backend) Off(t power.Target) error { return b.reset(t, redfish.ForceOffResetType) }

// Cycle uses the BMC's own power cycle instead of off, delay, on.
func (b *Backend) Cycle(t power.Target) error { return b.reset(t, redfish.PowerCycleResetType) }

func (b *Backend) Get(t power.Target) (bool, error) {
	var on bool
	err := b.withSystem(t, func(system *redfish.ComputerSystem) error {
		on = system.PowerState == redfish.OnPowerState
		return nil
	})
	return on, err
}

func (b *Backend) reset(t power.Target, resetType redfish.ResetType) error {
	return b.withSystem(t, func(system *redfish.ComputerSystem) error {
		log.Debug().Str("system", system.ID).Str("reset-type", string(resetType)).Msg("resetting computer system")
		return system.Reset(resetType)
	})
}

func (b *Backend) withSystem(t power.Target, fn func(*redfish.ComputerSystem) error) error {
	endpoint, err := Endpoint(t.URL)
	if err != nil {
		return err
	}
	c, err := gofish.Connect(gofish.ClientConfig{
		Endpoint:   endpoint,
		Username:   t.Username,
		Password:   t.Password,
		Insecure:   b.insecure,
		HTTPClient: b.client,
		BasicAuth:  true,
	})
	if err != nil {
		return &power.NetworkError{Model: Model, URL: endpoint, Err: fmt.Errorf("failed to connect: %w", err)}
	}
	defer c.Logout()

	systems, err := c.Service.Systems()
	if err != nil {
		return &power.NetworkError{Model: Model, URL: endpoint, Err: fmt.Errorf("failed to get systems: %w", err)}
	}
	system, err := selectSystem(systems, t.Index)
	if err != nil {
		return err
	}
	if err := fn(system); err != nil {
		return &power.NetworkError{Model: Model, URL: endpoint, Err: err}
	}
	return nil
}

// Endpoint reduces a normalized URL to scheme://host:port, which is what
// gofish expects as the service root.
func Endpoint(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", &power.ConfigurationError{Field: "host", Value: uri, Err: err}
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}

func selectSystem(systems []*redfish.ComputerSystem, id string) (*redfish.ComputerSystem, error) {
	if id == "" {
		if len(systems) == 1 {
			return systems[0], nil
		}
		return nil, &power.ConfigurationError{Field: "index", Reason: fmt.Sprintf("BMC manages %d systems, a system ID is required", len(systems))}
	}
	for _, system := range systems {
		if system.ID == id {
			return system, nil
		}
	}
	return nil, &power.ConfigurationError{Field: "index", Value: id, Reason: "no such computer system"}
}
