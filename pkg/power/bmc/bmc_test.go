package bmc

import (
	"errors"
	"testing"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	tgt := power.Target{Host: "bmc.lab", Port: 623}
	for state, want := range map[string]bool{
		"on":                   true,
		"On\n":                 true,
		"Chassis Power is on":  true,
		"off":                  false,
		"Off":                  false,
		"Chassis Power is off": false,
	} {
		on, err := ParseState(tgt, state)
		require.NoError(t, err, state)
		assert.Equal(t, want, on, state)
	}

	for _, state := range []string{"", "unknown", "PoweringOn", "online"} {
		_, err := ParseState(tgt, state)
		var netErr *power.NetworkError
		assert.True(t, errors.As(err, &netErr), state)
	}
}

func TestNewDefaultTimeout(t *testing.T) {
	b, err := New(power.BackendOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, b.(*Backend).timeout)
}
