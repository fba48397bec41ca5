package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Transcript records every line printed by external power commands in a
// file of its own, so the PDU or relay tool output can be reviewed after a
// test run without raising the main log level.
type Transcript struct {
	mu   sync.Mutex
	Log  *logrus.Logger
	Path string
	file io.Closer
}

// NewTranscript() opens (or creates) path for appending. An empty path
// returns a transcript that discards everything.
func NewTranscript(path string) (*Transcript, error) {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})

	t := &Transcript{Log: l, Path: path}
	if path == "" {
		l.SetOutput(io.Discard)
		return t, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	l.SetOutput(f)
	t.file = f
	return t, nil
}

// Line records a single output line of a command run for port.
func (t *Transcript) Line(port string, argv []string, line string) {
	t.Log.WithFields(logrus.Fields{
		"port": port,
		"cmd":  strings.Join(argv, " "),
	}).Info(line)
}

// OnLine returns a callback suitable for runner.Runner.OnLine.
func (t *Transcript) OnLine(port string) func(argv []string, line string) {
	return func(argv []string, line string) {
		t.Line(port, argv, line)
	}
}

func (t *Transcript) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
