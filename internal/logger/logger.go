// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// LevelSilent is above every level slog emits
const LevelSilent = slog.Level(12)

// Log is the configured logger, also installed as slog's default
var Log = slog.Default()

// Options controls logger setup
type Options struct {
	Silent  bool
	JSON    bool
	Verbose bool
	Output  io.Writer // defaults to os.Stderr
}

// Setup initializes the global logger. JSON selects the JSON handler,
// otherwise output is the more readable text handler.
func Setup(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := slog.LevelInfo
	switch {
	case opts.Silent:
		level = LevelSilent
	case opts.Verbose:
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
	return Log
}
