// Package shelly implements the Shelly Gen1 relay API. Relays are numbered
// from 0 and both switching and status requests answer with the relay
// status as JSON.
package shelly

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/OpenCHAMI/powerctl/pkg/client"
	"github.com/OpenCHAMI/powerctl/pkg/power"
)

const Model = "shelly"

func init() {
	power.Register(power.BackendInfo{
		Model:       Model,
		Family:      power.FamilyHostPort,
		DefaultPort: 80,
		Description: "Shelly Gen1 plugs and relays (/relay/<index>)",
	}, New)
}

// Relay is the status returned from the /relay/<index> API.
type Relay struct {
	IsOn           bool   `json:"ison"`
	HasTimer       bool   `json:"has_timer"`
	TimerStartedAt int64  `json:"timer_started_at"`
	TimerDuration  int64  `json:"timer_duration"`
	TimerRemaining int64  `json:"timer_remaining"`
	Overpower      bool   `json:"overpower"`
	Source         string `json:"source"`
}

type Backend struct {
	client *http.Client
}

func New(opts power.BackendOptions) (power.Backend, error) {
	return &Backend{client: opts.Client}, nil
}

func (b *Backend) Validate(t power.Target) error {
	_, err := relay(t.Index)
	return err
}

func (b *Backend) On(t power.Target) error  { return b.set(t, "on") }
func (b *Backend) Off(t power.Target) error { return b.set(t, "off") }

func (b *Backend) set(t power.Target, turn string) error {
	uri, err := relayURL(t)
	if err != nil {
		return err
	}
	uri += "?turn=" + turn
	r, err := b.request(t, uri)
	if err != nil {
		return err
	}
	if r.IsOn != (turn == "on") {
		return &power.NetworkError{Model: Model, URL: power.Redact(uri), Err: fmt.Errorf("relay did not turn %s", turn)}
	}
	return nil
}

func (b *Backend) Get(t power.Target) (bool, error) {
	uri, err := relayURL(t)
	if err != nil {
		return false, err
	}
	r, err := b.request(t, uri)
	if err != nil {
		return false, err
	}
	return r.IsOn, nil
}

func (b *Backend) request(t power.Target, uri string) (*Relay, error) {
	body, err := power.Request(Model, b.client, http.MethodGet, uri, nil, client.HTTPHeader{}.BasicAuth(t.Username, t.Password))
	if err != nil {
		return nil, err
	}
	var r Relay
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, power.Unexpected(Model, uri, body)
	}
	return &r, nil
}

func relayURL(t power.Target) (string, error) {
	n, err := relay(t.Index)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s/relay/%d", t.Address(), n), nil
}

func relay(index string) (int, error) {
	n, err := strconv.Atoi(index)
	if err != nil || n < 0 {
		return 0, &power.ConfigurationError{Field: "index", Value: index, Reason: "shelly relays are numbered from 0"}
	}
	return n, nil
}
