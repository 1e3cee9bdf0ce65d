// Package logging provides the structured logger used across retainer.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging surface components depend on. Arguments after msg
// are slog-style key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// SlogLogger implements Logger on top of log/slog. Its level can be changed
// at runtime, which config reload relies on.
type SlogLogger struct {
	l     *slog.Logger
	level *slog.LevelVar
}

// New builds a logger writing to w (stderr when nil) in "text" or "json" format.
func New(level, format string, w io.Writer) (*SlogLogger, error) {
	if w == nil {
		w = os.Stderr
	}

	lv := new(slog.LevelVar)
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	lv.Set(parsed)

	opts := &slog.HandlerOptions{Level: lv}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return &SlogLogger{l: slog.New(h), level: lv}, nil
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return &SlogLogger{
		l:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		level: new(slog.LevelVar),
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// An empty string means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// SetLevel changes the minimum level of this logger and every logger derived
// from it with With.
func (s *SlogLogger) SetLevel(level string) error {
	parsed, err := ParseLevel(level)
	if err != nil {
		return err
	}
	s.level.Set(parsed)
	return nil
}

func (s *SlogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *SlogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *SlogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *SlogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...), level: s.level}
}
