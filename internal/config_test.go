package powerctl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portsYAML = `
- name: dut0
  cmd_on: relayctl 3 on
  cmd_off: relayctl 3 off
  delay: 500ms
- name: dut1
  model: rest
  host: http://pdu.lab/outlets/{index}
  index: "4"
  credentials: pdu-lab
- name: bench
`

func TestLoadPorts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ports.yaml")
	require.NoError(t, os.WriteFile(path, []byte(portsYAML), 0o644))

	ports, err := LoadPorts(path)
	require.NoError(t, err)
	require.Len(t, ports, 3)

	assert.Equal(t, power.ModeExternal, ports[0].ResolvedMode())
	assert.Equal(t, 500*time.Millisecond, ports[0].Delay)
	assert.Equal(t, power.ModeNetwork, ports[1].ResolvedMode())
	assert.Equal(t, "4", ports[1].Index)
	assert.Equal(t, "pdu-lab", ports[1].Credentials)
	assert.Equal(t, power.ModeManual, ports[2].ResolvedMode())

	port, ok := FindPort(ports, "dut1")
	assert.True(t, ok)
	assert.Equal(t, "rest", port.Model)
	_, ok = FindPort(ports, "dut9")
	assert.False(t, ok)
}

func TestLoadPortsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ports.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"pdu0","model":"netio","host":"10.0.0.5","index":"2"}]`), 0o644))

	ports, err := LoadPorts(path)
	require.NoError(t, err)
	assert.Equal(t, "netio", ports[0].Model)
}

func TestLoadPortsRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ports.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: a\n- name: a\n"), 0o644))

	_, err := LoadPorts(path)
	var cfgErr *power.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestLoadPortsRejectsIncompletePort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ports.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: a\n  cmd_on: 'on'\n"), 0o644))

	_, err := LoadPorts(path)
	var cfgErr *power.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "cmd_off", cfgErr.Field)
}

func TestLoadConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("concurrency: 8\nexternal:\n  sentinel: OK\n"), 0o644))
	require.NoError(t, LoadConfig(path))

	assert.Equal(t, 8, viper.GetInt("concurrency"))
	assert.Equal(t, "OK", viper.GetString("external.sentinel"))
	assert.Equal(t, 30*time.Second, viper.GetDuration("external.timeout"))

	assert.Error(t, LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")))
}
