package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger is an alias for slog.Logger
type Logger = slog.Logger

var (
	defaultLogger *Logger
	level         = new(slog.LevelVar)
)

var (
	String = slog.String
	Int    = slog.Int
	Bool   = slog.Bool
)

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Err(err error) slog.Attr {
	return slog.Attr{Key: "error", Value: slog.AnyValue(err)}
}

func FilePath(path string) slog.Attr {
	return slog.Attr{Key: "file_path", Value: slog.AnyValue(path)}
}

func Year(year int) slog.Attr {
	return slog.Int("year", year)
}

func init() {
	level.Set(slog.LevelInfo)
	SetOutput(os.Stderr)
}

// SetOutput replaces the destination of the default logger.
// Search results go to stdout, so logs never should.
func SetOutput(w io.Writer) {
	defaultLogger = slog.New(&PrefixHandler{
		handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
	})
}

// SetDebug toggles debug level output
func SetDebug(debug bool) {
	if debug {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(slog.LevelInfo)
}

// WithPrefix returns a new logger with the specified prefix
func WithPrefix(prefix string) *Logger {
	return slog.New(&PrefixHandler{
		prefix:  prefix,
		handler: defaultLogger.Handler(),
	})
}

// PrefixHandler wraps a slog.Handler and prepends "[prefix] " to every message.
type PrefixHandler struct {
	prefix  string
	handler slog.Handler
}

func (h *PrefixHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.prefix != "" {
		r.Message = fmt.Sprintf("[%s] %s", h.prefix, r.Message)
	}
	return h.handler.Handle(ctx, r)
}

func (h *PrefixHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrefixHandler{
		prefix:  h.prefix,
		handler: h.handler.WithAttrs(attrs),
	}
}

func (h *PrefixHandler) WithGroup(name string) slog.Handler {
	return &PrefixHandler{
		prefix:  h.prefix,
		handler: h.handler.WithGroup(name),
	}
}

func (h *PrefixHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.handler.Enabled(ctx, l)
}
