// Package logger: process-wide slog setup shared by the server and the placesctl tool; level and
// output format come from the environment.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// current is reused process-wide so every package writes through the same handler.
var (
	current  atomic.Pointer[slog.Logger]
	fallback sync.Once
)

// Setup: initialise the default logger from LOG_LEVEL and LOG_FORMAT.
// Constraint: output always goes to stderr; file handles and shipping are out of scope here.
func Setup() *slog.Logger {
	return SetupWriter(os.Stderr)
}

// SetupWriter: same as Setup but writes to w. Used by the CLI and by tests that capture output.
func SetupWriter(w io.Writer) *slog.Logger {
	lvl := ParseLevel(os.Getenv("LOG_LEVEL"))
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	l := slog.New(h)
	current.Store(l)
	return l
}

// ParseLevel maps debug/warn/error to their slog levels; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// L: default logger. When nothing called Setup yet, the first caller initialises it from the
// environment; concurrent first calls share that single initialisation.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	fallback.Do(func() {
		if current.Load() == nil {
			Setup()
		}
	})
	return current.Load()
}
