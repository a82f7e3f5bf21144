package utils

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConfigureLogging sets the global zerolog level and installs a logger
// writing to out, as JSON or, with LogFormat "console", human-readable lines.
func ConfigureLogging(cfg Config, out io.Writer) error {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, cfg.LogLevel)
	}
	zerolog.SetGlobalLevel(lvl)

	switch cfg.LogFormat {
	case "json", "":
	case "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, cfg.LogFormat)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}
