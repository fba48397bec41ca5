// Package simplerest implements a REST power backend for devices that
// only understand GET requests, such as relay boards with URLs like
// http://relay.lab/relay/{index}/{value}.
package simplerest

import (
	"net/http"
	"strings"

	"github.com/OpenCHAMI/powerctl/pkg/client"
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/OpenCHAMI/powerctl/pkg/power/rest"
)

const Model = "simplerest"

func init() {
	power.Register(power.BackendInfo{
		Model:       Model,
		Family:      power.FamilyURL,
		Description: "GET-only REST endpoint ({value} is 1/0 when switching, GET returns 1/0)",
	}, New)
}

type Backend struct {
	client *http.Client
}

func New(opts power.BackendOptions) (power.Backend, error) {
	return &Backend{client: opts.Client}, nil
}

func (b *Backend) On(t power.Target) error  { return b.set(t, "1") }
func (b *Backend) Off(t power.Target) error { return b.set(t, "0") }

func (b *Backend) set(t power.Target, value string) error {
	uri := strings.ReplaceAll(t.URL, "{value}", value)
	_, err := power.Request(Model, b.client, http.MethodGet, uri, nil, client.HTTPHeader{}.BasicAuth(t.Username, t.Password))
	return err
}

func (b *Backend) Get(t power.Target) (bool, error) {
	uri := rest.StatusURL(t.URL)
	body, err := power.Request(Model, b.client, http.MethodGet, uri, nil, client.HTTPHeader{}.BasicAuth(t.Username, t.Password))
	if err != nil {
		return false, err
	}
	return rest.ParseState(Model, uri, body)
}
