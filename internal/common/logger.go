package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"nirala/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
	}

	var logger zerolog.Logger
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json":
		logger = zerolog.New(os.Stdout)
	case "console", "text":
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	default:
		return zerolog.Logger{}, fmt.Errorf("unsupported log format %q", cfg.Logging.Format)
	}

	return logger.Level(lvl).With().Timestamp().Logger(), nil
}
