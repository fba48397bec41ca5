package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrToLogLevel(t *testing.T) {
	tests := map[LogLevel]zerolog.Level{
		DEBUG:    zerolog.DebugLevel,
		INFO:     zerolog.InfoLevel,
		WARN:     zerolog.WarnLevel,
		ERROR:    zerolog.ErrorLevel,
		DISABLED: zerolog.Disabled,
		TRACE:    zerolog.TraceLevel,
	}
	for in, want := range tests {
		got, err := strToLogLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := strToLogLevel("verbose")
	assert.Error(t, err)
}

func TestSet(t *testing.T) {
	var ll LogLevel
	require.NoError(t, ll.Set("warn"))
	assert.Equal(t, WARN, ll)
	assert.Error(t, ll.Set("loud"))
}

func TestInitWithLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "powerctl.log")
	require.NoError(t, InitWithLogLevel(INFO, path))
	defer Close()

	log.Debug().Msg("hidden")
	log.Info().Str("port", "dut0").Msg("switched on")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"port":"dut0"`)
	assert.NotContains(t, string(b), "hidden")
}

func TestTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.log")
	tr, err := NewTranscript(path)
	require.NoError(t, err)

	tr.OnLine("dut0")([]string{"relayctl", "on"}, "relay 3 closed")
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "relay 3 closed")
	assert.Contains(t, string(b), "port=dut0")
	assert.Contains(t, string(b), `cmd="relayctl on"`)
}

func TestTranscriptDiscard(t *testing.T) {
	tr, err := NewTranscript("")
	require.NoError(t, err)
	tr.Line("dut0", nil, "nothing")
	assert.NoError(t, tr.Close())
}
