package pdu

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OpenCHAMI/powerctl/pkg/driver"
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/OpenCHAMI/powerctl/pkg/power/simplerest"
)

func TestCollect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/relay/") {
		case "1":
			fmt.Fprint(w, "1")
		case "2":
			fmt.Fprint(w, "0")
		default:
			http.Error(w, "no such relay", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	inventory, errs := Collect(CollectConfig{
		Host:    srv.URL + "/relay/{index}",
		Model:   "simplerest",
		Indexes: []string{"1", "2", "3"},
	}, driver.WithHTTPClient(srv.Client()))

	require.Len(t, errs, 1)
	var netErr *power.NetworkError
	assert.True(t, errors.As(errs[0], &netErr))

	require.Len(t, inventory.Outlets, 3)
	assert.Equal(t, StateOn, inventory.Outlets[0].PowerState)
	assert.Equal(t, StateOff, inventory.Outlets[1].PowerState)
	assert.Equal(t, StateUnknown, inventory.Outlets[2].PowerState)
	assert.NotEmpty(t, inventory.Outlets[2].Error)
}

func TestCollectUnknownModel(t *testing.T) {
	inventory, errs := Collect(CollectConfig{Host: "pdu.lab", Model: "nope", Indexes: []string{"1"}})
	assert.Nil(t, inventory)
	require.Len(t, errs, 1)
}

func TestToSMD(t *testing.T) {
	inventory := &PDUInventory{
		Hostname: "pdu.lab",
		Model:    "netio",
		Outlets:  []PDUOutlet{{ID: "3", Name: "pdu.lab-3", PowerState: StateOn}},
	}
	records, err := ToSMD(inventory, "x3000m0")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "x3000m0p0v3", records[0]["ID"])
	assert.Equal(t, "x3000m0", records[0]["RedfishEndpointID"])

	_, err = ToSMD(inventory, "x3000c0s0b0n0")
	assert.Error(t, err)

	inventory.Outlets[0].ID = "A1"
	_, err = ToSMD(inventory, "x3000m0")
	assert.Error(t, err)
}
