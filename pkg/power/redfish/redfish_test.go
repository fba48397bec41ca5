package redfish

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBMC struct {
	mu     sync.Mutex
	state  string
	resets []string
}

func (f *fakeBMC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch path {
	case "/redfish/v1":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"@odata.id": "/redfish/v1/",
			"Id":        "RootService",
			"Systems":   map[string]string{"@odata.id": "/redfish/v1/Systems"},
		})
	case "/redfish/v1/Systems":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"@odata.id":           "/redfish/v1/Systems",
			"Members":             []map[string]string{{"@odata.id": "/redfish/v1/Systems/node0"}},
			"Members@odata.count": 1,
		})
	case "/redfish/v1/Systems/node0":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"@odata.id":  "/redfish/v1/Systems/node0",
			"Id":         "node0",
			"PowerState": f.state,
			"Actions": map[string]any{
				"#ComputerSystem.Reset": map[string]any{
					"target":                            "/redfish/v1/Systems/node0/Actions/ComputerSystem.Reset",
					"ResetType@Redfish.AllowableValues": []string{"On", "ForceOff", "PowerCycle"},
				},
			},
		})
	case "/redfish/v1/Systems/node0/Actions/ComputerSystem.Reset":
		var body struct {
			ResetType string
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.resets = append(f.resets, body.ResetType)
		switch body.ResetType {
		case "On", "PowerCycle":
			f.state = "On"
		case "ForceOff":
			f.state = "Off"
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func TestResetAndGet(t *testing.T) {
	bmc := &fakeBMC{state: "Off"}
	srv := httptest.NewServer(bmc)
	defer srv.Close()

	b, err := New(power.BackendOptions{Client: srv.Client()})
	require.NoError(t, err)
	target := power.Target{URL: srv.URL, Index: "node0", Username: "root", Password: "root"}

	on, err := b.Get(target)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, b.On(target))
	require.NoError(t, b.(power.Cycler).Cycle(target))
	require.NoError(t, b.Off(target))

	bmc.mu.Lock()
	defer bmc.mu.Unlock()
	assert.Equal(t, []string{"On", "PowerCycle", "ForceOff"}, bmc.resets)
}

func TestUnknownSystem(t *testing.T) {
	srv := httptest.NewServer(&fakeBMC{state: "On"})
	defer srv.Close()

	b, _ := New(power.BackendOptions{Client: srv.Client()})
	_, err := b.Get(power.Target{URL: srv.URL, Index: "node9"})

	var cfgErr *power.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSingleSystemWithoutIndex(t *testing.T) {
	srv := httptest.NewServer(&fakeBMC{state: "On"})
	defer srv.Close()

	b, _ := New(power.BackendOptions{Client: srv.Client()})
	on, err := b.Get(power.Target{URL: srv.URL})
	require.NoError(t, err)
	assert.True(t, on)
}

func TestEndpoint(t *testing.T) {
	endpoint, err := Endpoint("https://bmc.lab:443/redfish/v1/Systems/1")
	require.NoError(t, err)
	assert.Equal(t, "https://bmc.lab:443", endpoint)
}
