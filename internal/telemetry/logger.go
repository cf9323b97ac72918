// Package telemetry wraps zerolog into the service-scoped logger threaded
// through every coordinator component.
package telemetry

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config configures a service logger.
type Config struct {
	Service string
	Level   string // debug|info|warn|error, defaults to info
	Format  string // json|console, defaults to json
	Output  io.Writer
}

// New builds a zerolog.Logger scoped to a service name.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.ToLower(cfg.Format) == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.Service).
		Logger()
}

// NewFromEnv builds a logger from LOG_LEVEL/LOG_FORMAT environment
// variables, defaulting to info/json when unset.
func NewFromEnv(service string) zerolog.Logger {
	return New(Config{
		Service: service,
		Level:   strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		Format:  strings.TrimSpace(os.Getenv("LOG_FORMAT")),
	})
}
