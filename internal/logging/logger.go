package logging

import (
	"log/slog"
	"os"
)

// Setup initializes the global slog logger with JSON output to stdout.
func Setup(appEnv string) {
	slog.SetDefault(slog.New(StdoutHandler(appEnv)))
}

// StdoutHandler is the JSON handler shared by Setup and the DB fan-out.
func StdoutHandler(appEnv string) slog.Handler {
	level := slog.LevelInfo
	if appEnv == "development" {
		level = slog.LevelDebug
	}
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
}
