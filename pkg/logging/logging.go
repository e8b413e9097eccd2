// Package logging provides the key/value Logger used while decoding, and the
// verbosity levels of the command line tools.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is the logging interface used by the decoder and index.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Verbosity controls how much a tool reports.
type Verbosity int

const (
	// Silent reports errors only.
	Silent Verbosity = iota
	// Quiet adds warnings.
	Quiet
	// Normal adds progress information.
	Normal
	// Verbose adds per-record tracing.
	Verbose
)

func (v Verbosity) String() string {
	switch v {
	case Silent:
		return "silent"
	case Quiet:
		return "quiet"
	case Normal:
		return "normal"
	case Verbose:
		return "verbose"
	default:
		return fmt.Sprintf("Verbosity(%d)", int(v))
	}
}

// ParseVerbosity maps a configuration name to a verbosity. Common slog level
// names are accepted as aliases.
func ParseVerbosity(name string) (Verbosity, error) {
	switch strings.ToLower(name) {
	case "silent", "error":
		return Silent, nil
	case "quiet", "warn", "warning":
		return Quiet, nil
	case "", "normal", "info":
		return Normal, nil
	case "verbose", "debug":
		return Verbose, nil
	default:
		return Normal, fmt.Errorf("unknown verbosity %q", name)
	}
}

// Level returns the slog level that admits exactly the messages of v.
func (v Verbosity) Level() slog.Level {
	switch {
	case v <= Silent:
		return slog.LevelError
	case v == Quiet:
		return slog.LevelWarn
	case v == Normal:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

type slogLogger struct {
	l *slog.Logger
}

// New returns a Logger writing human readable lines to w at verbosity v.
func New(w io.Writer, v Verbosity) Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: v.Level()})
	return FromSlog(slog.New(h))
}

// FromSlog adapts an existing slog.Logger.
func FromSlog(l *slog.Logger) Logger {
	return slogLogger{l: l}
}

func (s slogLogger) Debug(msg string, kv ...any) { s.l.Debug(msg, kv...) }
func (s slogLogger) Info(msg string, kv ...any)  { s.l.Info(msg, kv...) }
func (s slogLogger) Warn(msg string, kv ...any)  { s.l.Warn(msg, kv...) }
func (s slogLogger) Error(msg string, kv ...any) { s.l.Error(msg, kv...) }

// Enabled reports whether l would emit a message at level. Loggers that are
// not slog backed are assumed to emit everything.
func Enabled(l Logger, level slog.Level) bool {
	if s, ok := l.(slogLogger); ok {
		return s.l.Enabled(context.Background(), level)
	}
	_, nop := l.(noopLogger)
	return !nop
}

type noopLogger struct{}

// Nop returns a Logger that discards everything.
func Nop() Logger { return noopLogger{} }

func (noopLogger) Debug(_ string, _ ...any) {}
func (noopLogger) Info(_ string, _ ...any)  {}
func (noopLogger) Warn(_ string, _ ...any)  {}
func (noopLogger) Error(_ string, _ ...any) {}
