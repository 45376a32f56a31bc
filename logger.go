package arctic

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled reports false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the sink logger. Accessed atomically so that SetLogger
// can be called while columns are being clocked on other goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the sink that arctic writes diagnostics to.
// By default arctic produces no log output. Pass nil to restore silence.
//
// The sink only decides where records go. How much is written for a given
// call is decided by that call's verbosity (see WithVerbosity):
//   - 0: nothing
//   - 1: [slog.LevelInfo], one record per clocking direction
//   - 2: [slog.LevelDebug], express matrix geometry and per-pass detail
//
// Example:
//
//	arctic.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current sink logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// levelHandler drops records below min before they reach the wrapped
// handler.
type levelHandler struct {
	min   slog.Level
	inner slog.Handler
}

func (h levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min && h.inner.Enabled(ctx, level)
}

func (h levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return levelHandler{min: h.min, inner: h.inner.WithAttrs(attrs)}
}

func (h levelHandler) WithGroup(name string) slog.Handler {
	return levelHandler{min: h.min, inner: h.inner.WithGroup(name)}
}

// verbosityLogger narrows base to what the given verbosity allows.
func verbosityLogger(base *slog.Logger, verbosity int) *slog.Logger {
	if base == nil {
		base = Logger()
	}
	switch {
	case verbosity <= 0:
		return newNopLogger()
	case verbosity == 1:
		return slog.New(levelHandler{min: slog.LevelInfo, inner: base.Handler()})
	default:
		return slog.New(levelHandler{min: slog.LevelDebug, inner: base.Handler()})
	}
}
