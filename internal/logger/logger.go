package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the process-wide logger. Development keeps human-readable
// console output at debug level so duplicate-ping and cache-miss noise is
// visible while tuning thresholds; everything else logs structured JSON
// at info.
func New(env string) zerolog.Logger {
	log := zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", "telemetry-service").
		Logger()
	if env == "development" {
		return log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)
	}
	return log.Level(zerolog.InfoLevel)
}
