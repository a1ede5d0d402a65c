package flock

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/flock/internal/gpu"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for flock and its sub-packages.
// By default flock produces no log output. Pass nil to restore the
// silent default.
//
// Log levels used by flock:
//   - [slog.LevelDebug]: mesh bindings, instance uploads, texture recreation
//   - [slog.LevelInfo]: device opened, pipeline created
//   - [slog.LevelWarn]: script reload and file watch failures
//
// Example:
//
//	flock.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	gpu.SetLogger(l)
}

// Logger returns the current logger used by flock. Sub-packages (svg,
// script) call this to share the same configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
