package observability

import (
	"context"
	"io"
	"log/slog"
)

// Level filters records written by a text logger.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error"; anything else is info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type textLogger struct {
	l *slog.Logger
}

// NewTextLogger writes key=value records to w at or above level.
func NewTextLogger(w io.Writer, level Level) Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.slog()})
	return textLogger{l: slog.New(h)}
}

func (t textLogger) Debug(msg string, fields ...Field) { t.log(slog.LevelDebug, msg, fields) }
func (t textLogger) Info(msg string, fields ...Field)  { t.log(slog.LevelInfo, msg, fields) }
func (t textLogger) Warn(msg string, fields ...Field)  { t.log(slog.LevelWarn, msg, fields) }
func (t textLogger) Error(msg string, fields ...Field) { t.log(slog.LevelError, msg, fields) }

func (t textLogger) With(fields ...Field) Logger {
	return textLogger{l: t.l.With(attrs(fields)...)}
}

func (t textLogger) log(level slog.Level, msg string, fields []Field) {
	t.l.Log(context.Background(), level, msg, attrs(fields)...)
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key(), f.Value()))
	}
	return out
}
