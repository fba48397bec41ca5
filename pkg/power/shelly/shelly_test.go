package shelly

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay(t *testing.T) {
	ison := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/relay/0", r.URL.Path)
		switch r.URL.Query().Get("turn") {
		case "on":
			ison = true
		case "off":
			ison = false
		}
		_ = json.NewEncoder(w).Encode(Relay{IsOn: ison, Source: "http"})
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	host, port, err := power.SplitHostPort(u.Host, 80)
	require.NoError(t, err)
	target := power.Target{Host: host, Port: port, Index: "0"}

	b, err := New(power.BackendOptions{Client: srv.Client()})
	require.NoError(t, err)

	require.NoError(t, b.On(target))
	on, err := b.Get(target)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, b.Off(target))
	on, err = b.Get(target)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestRelayIgnoredCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Relay{IsOn: false})
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	host, port, _ := power.SplitHostPort(u.Host, 80)
	b, _ := New(power.BackendOptions{Client: srv.Client()})

	err := b.On(power.Target{Host: host, Port: port, Index: "0"})
	var netErr *power.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestRelayIndex(t *testing.T) {
	b, _ := New(power.BackendOptions{})
	v := b.(power.TargetValidator)
	assert.NoError(t, v.Validate(power.Target{Index: "0"}))
	assert.Error(t, v.Validate(power.Target{Index: "-1"}))
	assert.Error(t, v.Validate(power.Target{Index: "one"}))
}
