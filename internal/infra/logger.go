package infra

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger for appEnv. Development gets a console
// writer at debug level, "cli" tools log warnings to stderr so stdout stays
// clean for their output, and everything else emits JSON. LOG_LEVEL
// overrides the level when it names a valid zerolog level.
func NewLogger(appEnv string) zerolog.Logger {
	out := io.Writer(os.Stdout)
	if appEnv == "cli" {
		out = os.Stderr
	}
	return newLogger(out, appEnv, os.Getenv("LOG_LEVEL"))
}

func newLogger(out io.Writer, appEnv, levelName string) zerolog.Logger {
	level := zerolog.InfoLevel
	switch appEnv {
	case "development":
		level = zerolog.DebugLevel
	case "cli":
		level = zerolog.WarnLevel
	}
	if levelName = strings.TrimSpace(levelName); levelName != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(levelName)); err == nil && parsed != zerolog.NoLevel {
			level = parsed
		}
	}

	if appEnv == "development" || appEnv == "cli" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "hairstudio").
		Logger()
}

// Logger lets packages accept a logger without importing zerolog themselves.
type Logger = zerolog.Logger
