// Package logger configures the process-wide zerolog logger from the
// logging section of the config.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sponsorops/internal/platform/config"
)

// Init sets the global level and sink. Unknown levels fall back to info;
// a file sink that cannot be opened falls back to stdout so the process
// never starts silent.
func Init(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := io.Writer(os.Stdout)
	if cfg.Output == "file" && cfg.FilePath != "" {
		if f, ferr := openLogFile(cfg.FilePath); ferr != nil {
			log.Error().Err(ferr).Str("path", cfg.FilePath).Msg("log file unavailable, using stdout")
		} else {
			out = f
		}
	}
	if cfg.Format == "text" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "sponsorops").Logger()
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
}
