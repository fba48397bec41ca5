// Package rest implements the generic REST power backend: PUT to switch,
// GET to query. The host is a URL template such as
//
//	http://pdu.lab/outlets/{index}
//	http://pdu.lab/outlets/{index}/{value}
//
// where {value} is replaced with 1 or 0 when switching. The status body is
// a single 1 or 0.
package rest

import (
	"net/http"
	"strings"

	"github.com/OpenCHAMI/powerctl/pkg/client"
	"github.com/OpenCHAMI/powerctl/pkg/power"
)

const Model = "rest"

func init() {
	power.Register(power.BackendInfo{
		Model:       Model,
		Family:      power.FamilyURL,
		Description: "generic REST endpoint (PUT 1/0 to switch, GET returns 1/0)",
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
	header := client.HTTPHeader{}.BasicAuth(t.Username, t.Password).ContentType("text/plain")
	_, err := power.Request(Model, b.client, http.MethodPut, uri, client.HTTPBody(value), header)
	return err
}

func (b *Backend) Get(t power.Target) (bool, error) {
	uri := StatusURL(t.URL)
	body, err := power.Request(Model, b.client, http.MethodGet, uri, nil, client.HTTPHeader{}.BasicAuth(t.Username, t.Password))
	if err != nil {
		return false, err
	}
	return ParseState(Model, uri, body)
}

// StatusURL drops the {value} placeholder (and the slash it leaves
// behind) from a switching URL.
func StatusURL(uri string) string {
	if !strings.Contains(uri, "{value}") {
		return uri
	}
	return strings.TrimSuffix(strings.ReplaceAll(uri, "{value}", ""), "/")
}

// ParseState maps a 1/0 status body to a power state.
func ParseState(model string, uri string, body []byte) (bool, error) {
	switch strings.TrimSpace(string(body)) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, power.Unexpected(model, uri, body)
}
