// Package logging builds the slog loggers used by assocctl.
//
// Library packages take a *slog.Logger through their options and never
// configure logging themselves; the CLI decides level, format and sinks
// here and hands the result down.
package logging

import (
	"io"
	"log/slog"
	"os"
	"testing"
)

// Format selects the stderr encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config describes a logger.
type Config struct {
	Level  slog.Level
	Format Format
	// Output defaults to os.Stderr.
	Output io.Writer
	// File, when set, also receives every record as JSON.
	File io.Writer
	// NoColor turns colors off even on a terminal.
	NoColor bool
}

// New builds a logger from cfg. Unknown formats fall back to text.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var h slog.Handler
	if cfg.Format == FormatJSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = NewHandler(out, opts, !cfg.NoColor && SupportsColor(out))
	}
	if cfg.File != nil {
		h = NewMultiHandler(h, slog.NewJSONHandler(cfg.File, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(h)
}

// LevelFor maps the -v count and --quiet to a level: warnings by default,
// info with -v, debug with -vv.
func LevelFor(verbosity int, quiet bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelError
	case verbosity >= 2:
		return slog.LevelDebug
	case verbosity == 1:
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

type testWriter struct{ t testing.TB }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.t.Log(msg)
	return len(p), nil
}

// ForTest logs at debug level into the test log.
func ForTest(t testing.TB) *slog.Logger {
	t.Helper()
	return New(Config{Level: slog.LevelDebug, Output: testWriter{t: t}, NoColor: true})
}
