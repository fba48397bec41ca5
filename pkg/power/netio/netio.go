// Package netio implements the NETIO 4 CGI interface. All four outlets are
// switched with one mask where each position is 1 (on), 0 (off) or u
// (unchanged), and the status request returns the four states separated
// by spaces.
package netio

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenCHAMI/powerctl/pkg/power"
)

const (
	Model   = "netio"
	Outlets = 4
)

var stateToken = regexp.MustCompile(`\b[01]\b`)

func init() {
	power.Register(power.BackendInfo{
		Model:       Model,
		Family:      power.FamilyHostPort,
		DefaultPort: 80,
		Description: "NETIO 4 web CGI (/tgi/control.tgi), outlets 1-4",
	}, New)
}

type Backend struct {
	client *http.Client
}

func New(opts power.BackendOptions) (power.Backend, error) {
	return &Backend{client: opts.Client}, nil
}

func (b *Backend) Validate(t power.Target) error {
	_, err := outlet(t.Index)
	return err
}

func (b *Backend) On(t power.Target) error  { return b.set(t, '1') }
func (b *Backend) Off(t power.Target) error { return b.set(t, '0') }

func (b *Backend) set(t power.Target, value byte) error {
	n, err := outlet(t.Index)
	if err != nil {
		return err
	}
	mask := []byte(strings.Repeat("u", Outlets))
	mask[n-1] = value
	_, err = power.Request(Model, b.client, http.MethodGet, controlURL(t, string(mask)), nil, nil)
	return err
}

func (b *Backend) Get(t power.Target) (bool, error) {
	n, err := outlet(t.Index)
	if err != nil {
		return false, err
	}
	uri := controlURL(t, "l")
	body, err := power.Request(Model, b.client, http.MethodGet, uri, nil, nil)
	if err != nil {
		return false, err
	}
	states := stateToken.FindAllString(string(body), -1)
	if len(states) < Outlets {
		return false, power.Unexpected(Model, uri, body)
	}
	return states[n-1] == "1", nil
}

func controlURL(t power.Target, p string) string {
	query := url.Values{}
	if t.Username != "" {
		query.Set("l", fmt.Sprintf("p:%s:%s", t.Username, t.Password))
	}
	query.Set("p", p)
	u := url.URL{Scheme: "http", Host: t.Address(), Path: "/tgi/control.tgi", RawQuery: query.Encode()}
	return u.String()
}

func outlet(index string) (int, error) {
	n, err := strconv.Atoi(index)
	if err != nil || n < 1 || n > Outlets {
		return 0, &power.ConfigurationError{Field: "index", Value: index, Reason: fmt.Sprintf("netio outlets are numbered 1-%d", Outlets)}
	}
	return n, nil
}
