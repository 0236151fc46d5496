// Package logging wraps zerolog with SentinelWatch's default field set,
// adapted from the teacher pack's pkg/logger (benedict-erwin-insight-collector)
// scoped-logger pattern.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log = zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// Init reconfigures the global logger's level and output shape. format
// is either "json" (default, for production) or "console" (human
// readable, for local/dev use).
func Init(level string, format string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	var writer io.Writer = os.Stdout
	if format == "console" {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	log = zerolog.New(writer).With().Timestamp().Logger().Level(parsed)
	zerolog.SetGlobalLevel(parsed)
}

// Get returns the process-wide logger.
func Get() *zerolog.Logger {
	return &log
}

// Scoped returns a child logger tagged with a component name, mirroring
// the teacher pack's WithScope helper.
func Scoped(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
