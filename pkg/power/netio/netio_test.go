package netio

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func target(t *testing.T, srv *httptest.Server, index string) power.Target {
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, port, err := power.SplitHostPort(u.Host, 80)
	require.NoError(t, err)
	return power.Target{Host: host, Port: port, Index: index, Username: "admin", Password: "admin"}
}

func fakeNetio(states []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tgi/control.tgi" || r.URL.Query().Get("l") != "p:admin:admin" {
			http.NotFound(w, r)
			return
		}
		p := r.URL.Query().Get("p")
		if p == "l" {
			parts := make([]string, len(states))
			for i, s := range states {
				parts[i] = string(s)
			}
			fmt.Fprintf(w, "<html>%s </html>", strings.Join(parts, " "))
			return
		}
		for i := range p {
			if p[i] != 'u' {
				states[i] = p[i]
			}
		}
		fmt.Fprint(w, "<html>250 OK</html>")
	}))
}

func TestSwitchOutlet(t *testing.T) {
	states := []byte("0101")
	srv := fakeNetio(states)
	defer srv.Close()

	b, err := New(power.BackendOptions{Client: srv.Client()})
	require.NoError(t, err)

	require.NoError(t, b.On(target(t, srv, "1")))
	require.NoError(t, b.Off(target(t, srv, "4")))
	assert.Equal(t, "1100", string(states))

	on, err := b.Get(target(t, srv, "2"))
	require.NoError(t, err)
	assert.True(t, on)
	on, err = b.Get(target(t, srv, "3"))
	require.NoError(t, err)
	assert.False(t, on)
}

func TestInvalidIndex(t *testing.T) {
	b, _ := New(power.BackendOptions{})
	v := b.(power.TargetValidator)
	for _, index := range []string{"0", "5", "a", ""} {
		err := v.Validate(power.Target{Host: "pdu", Port: 80, Index: index})
		var cfgErr *power.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr), index)
	}
	assert.NoError(t, v.Validate(power.Target{Index: "4"}))
}

func TestControlURL(t *testing.T) {
	assert.Equal(t, "http://pdu:80/tgi/control.tgi?p=uu1u", controlURL(power.Target{Host: "pdu", Port: 80}, "uu1u"))
	assert.Equal(t, "http://pdu:8080/tgi/control.tgi?l=p%3Aa%3Ab&p=l", controlURL(power.Target{Host: "pdu", Port: 8080, Username: "a", Password: "b"}, "l"))
}

func TestSwitchOutletEscapesCredentials(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		fmt.Fprint(w, "<html>250 OK</html>")
	}))
	defer srv.Close()

	b, err := New(power.BackendOptions{Client: srv.Client()})
	require.NoError(t, err)

	tgt := target(t, srv, "2")
	tgt.Password = "s3#cr&et p=1111"
	require.NoError(t, b.On(tgt))
	assert.Equal(t, "p:admin:s3#cr&et p=1111", query.Get("l"))
	assert.Equal(t, "u1uu", query.Get("p"))
}

func TestRedactDropsCredentials(t *testing.T) {
	uri := controlURL(power.Target{Host: "pdu", Port: 80, Username: "admin", Password: "s3#cr&et"}, "l")
	assert.NotContains(t, power.Redact(uri), "admin")
	assert.NotContains(t, power.Redact(uri), "s3")
}
