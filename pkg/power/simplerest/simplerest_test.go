package simplerest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwitchAndQueryWithGet(t *testing.T) {
	state := "0"
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		requests = append(requests, r.URL.Path)
		switch {
		case strings.HasSuffix(r.URL.Path, "/1"), strings.HasSuffix(r.URL.Path, "/0"):
			state = r.URL.Path[len(r.URL.Path)-1:]
		default:
			_, _ = w.Write([]byte(state))
		}
	}))
	defer srv.Close()

	b, err := New(power.BackendOptions{Client: srv.Client()})
	require.NoError(t, err)
	target := power.Target{URL: srv.URL + "/relay/3/{value}"}

	require.NoError(t, b.On(target))
	on, err := b.Get(target)
	require.NoError(t, err)
	assert.True(t, on)

	assert.Equal(t, []string{"/relay/3/1", "/relay/3"}, requests)
}
