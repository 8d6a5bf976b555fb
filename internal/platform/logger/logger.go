package logger

import (
	"log/slog"
	"os"
)

// New returns the structured logger for the process. Debug logging is a
// construction-time toggle so business logic never inspects environment
// flags itself.
func New(appEnv string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug || appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
