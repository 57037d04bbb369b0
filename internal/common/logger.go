package common

import (
	"log/slog"
	"os"
)

// SetupLogger installs the process-wide slog default. The console format
// is meant for interactive CLI use; json is for anything that ships logs
// elsewhere.
func SetupLogger(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
