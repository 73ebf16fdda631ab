// Package log provides the logging infrastructure for serendib.
//
// Components receive a logger through their constructor rather than
// using a package-level global. Each component narrows the logger with
// logger.With("component", ...) so log lines can be traced back to
// their origin.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a type alias for *slog.Logger. Using the standard library
// type directly keeps full compatibility with the slog ecosystem and
// avoids a custom interface that would need wrapping everywhere.
type Logger = *slog.Logger

// Config defines logger construction options.
type Config struct {
	// Level is the minimum log level. Default: slog.LevelInfo.
	Level slog.Level

	// JSON switches output to JSON format. Default: text.
	JSON bool

	// AddSource attaches source file positions to log entries.
	AddSource bool
}

// New creates a logger writing to os.Stderr. Stderr keeps stdout free
// for conversation output.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a logger writing to w. Tests use this with a
// bytes.Buffer to inspect output.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// NewNop creates a logger that discards everything. Test-only: production
// code should always be able to say what it did.
func NewNop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
