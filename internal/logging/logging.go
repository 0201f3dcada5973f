// Package logging builds the process-wide slog logger: a console handler plus
// combined and error-only log files, closed together at shutdown.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configures Setup.
type Options struct {
	Level   string    // debug, info, warn, error
	Format  string    // text or json
	Dir     string    // directory for combined.log and error.log; empty disables files
	Console io.Writer // defaults to os.Stderr
}

// Logger is the configured logger plus the file sinks it owns.
type Logger struct {
	*slog.Logger
	files []*os.File
}

// ParseLevel maps a level name to a slog.Level. Unknown names fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup creates the logger. Callers must Close it before exiting so the file
// sinks are flushed.
func Setup(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	level := ParseLevel(opts.Level)

	l := &Logger{}
	handlers := []slog.Handler{newHandler(opts.Format, console, level)}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		combined, err := openAppend(filepath.Join(opts.Dir, "combined.log"))
		if err != nil {
			return nil, err
		}
		errLog, err := openAppend(filepath.Join(opts.Dir, "error.log"))
		if err != nil {
			_ = combined.Close()
			return nil, err
		}
		l.files = append(l.files, combined, errLog)
		handlers = append(handlers,
			slog.NewJSONHandler(combined, &slog.HandlerOptions{Level: level}),
			slog.NewJSONHandler(errLog, &slog.HandlerOptions{Level: slog.LevelError}),
		)
	}

	l.Logger = slog.New(&fanout{handlers: handlers})
	return l, nil
}

// Close syncs and closes the file sinks.
func (l *Logger) Close() error {
	var errs []error
	for _, f := range l.files {
		if err := f.Sync(); err != nil {
			errs = append(errs, err)
		}
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.files = nil
	return errors.Join(errs...)
}

func newHandler(format string, w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

// fanout dispatches each record to every handler that accepts its level.
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanout{handlers: next}
}
