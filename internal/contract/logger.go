package contract

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Log formats accepted by InitLogger.
const (
	ConsoleLogFormat = "console"
	JSONLogFormat    = "json"
	DefaultLogLevel  = "info"
)

var (
	defaultOnce sync.Once
	root        atomic.Pointer[zerolog.Logger]
)

// Log returns the process-wide logger. It falls back to an info-level
// console logger on stderr when InitLogger has not been called.
func Log() *zerolog.Logger {
	if l := root.Load(); l != nil {
		return l
	}
	defaultOnce.Do(func() {
		if root.Load() == nil {
			l := newLogger(os.Stderr, zerolog.InfoLevel, ConsoleLogFormat)
			root.CompareAndSwap(nil, &l)
		}
	})
	return root.Load()
}

// InitLogger configures the process-wide logger. Logs always go to stderr
// so that stdout stays reserved for results and the MCP transport.
func InitLogger(level, format string) error {
	return InitLoggerTo(os.Stderr, level, format)
}

// InitLoggerTo is InitLogger with an explicit destination.
func InitLoggerTo(w io.Writer, level, format string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ConsoleLogFormat
	}
	if format != ConsoleLogFormat && format != JSONLogFormat {
		return fmt.Errorf("invalid log format '%s'. must be console, json", format)
	}
	l := newLogger(w, lvl, format)
	root.Store(&l)
	return nil
}

func newLogger(w io.Writer, lvl zerolog.Level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if format == ConsoleLogFormat {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// ParseLogLevel maps a level name onto zerolog. An empty name means info.
func ParseLogLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level '%s'", s)
	}
}
