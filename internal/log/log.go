package log

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// string representation that directly corresponds to zerolog.Level
type (
	LogLevel     string
	LogLevelList []LogLevel
)

const (
	DEBUG    LogLevel = "debug"
	INFO     LogLevel = "info"
	WARN     LogLevel = "warn"
	ERROR    LogLevel = "error"
	DISABLED LogLevel = "disabled"
	TRACE    LogLevel = "trace"
)

var Levels = [6]LogLevel{DEBUG, INFO, WARN, ERROR, DISABLED, TRACE}
var LogFile *os.File

func (ll LogLevel) String() string {
	return string(ll)
}

func (ll *LogLevel) Set(v string) error {
	switch LogLevel(v) {
	case DEBUG, INFO, WARN, ERROR, DISABLED, TRACE:
		*ll = LogLevel(v)
		return nil
	default:
		return fmt.Errorf("must be one of %v", Levels)
	}
}

func (ll LogLevel) Type() string {
	return "LogLevel"
}

// InitWithLogLevel() sets up the global zerolog logger. Messages go to
// stderr in a human readable form and, if logPath is set, as JSON to the
// log file as well.
func InitWithLogLevel(logLevel LogLevel, logPath string) error {
	var (
		level   zerolog.Level
		writers []io.Writer
		err     error
	)

	// set the logging level
	level, err = strToLogLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to convert log level: %w", err)
	}

	// add the default stderr writer
	writers = append(writers, &zerolog.FilteredLevelWriter{
		Writer: &zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}},
		Level:  level,
	})

	// add another writer to write to a log file
	if logPath != "" {
		LogFile, err = os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: LogFile},
			Level:  level,
		})
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(level)
	return nil
}

// Close releases the log file opened by InitWithLogLevel, if any.
func Close() error {
	if LogFile == nil {
		return nil
	}
	err := LogFile.Close()
	LogFile = nil
	return err
}

func strToLogLevel(ll LogLevel) (zerolog.Level, error) {
	var tostr = func(lls []LogLevel) []string {
		s := []string{}
		for _, l := range lls {
			s = append(s, string(l))
		}
		return s
	}

	if index := slices.Index(Levels[:], ll); index >= 0 {
		// handle special cases to map index to DISABLED and TRACE
		switch index {
		case 4:
			return zerolog.Disabled, nil
		case 5:
			return zerolog.TraceLevel, nil
		}
		return zerolog.Level(index), nil
	}
	return -100, fmt.Errorf(
		"invalid log level (options: %s)", strings.Join(tostr(Levels[:]), ", "),
	)
}
