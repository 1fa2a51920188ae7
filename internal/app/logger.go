package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide slog logger: JSON when LOG_FORMAT
// says so (production posting pipelines feed a collector), text
// otherwise. Source locations are always attached.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
