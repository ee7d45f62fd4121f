package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "contratpro"

// New returns the service logger: human-readable in development, JSON
// everywhere else.
func New(environment string) zerolog.Logger {
	return newWithWriter(environment, os.Stdout)
}

func newWithWriter(environment string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if environment == "development" {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}
