package infra

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the service logger. Development gets a human-readable
// console writer at debug level; everything else emits JSON at info.
func NewLogger(appEnv string) zerolog.Logger {
	var out = zerolog.New(os.Stdout)
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return out.Level(level).
		With().
		Timestamp().
		Str("service", "virezo-api").
		Logger()
}

// Logger aliases zerolog.Logger so the rest of the service depends on the
// logging contract through this package rather than the module directly.
type Logger = zerolog.Logger
