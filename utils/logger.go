package utils

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Logger provides leveled, colored logging throughout the application.
// It wraps log/slog with a tint handler so output stays readable in a
// terminal and machine-parseable enough for the log cleanup job.
type Logger struct {
	sl *slog.Logger
}

// NewLogger creates a new Logger writing to stderr.
func NewLogger() *Logger {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02 15:04:05",
	})
	return &Logger{sl: slog.New(handler)}
}

// NewTestLogger returns a logger for tests, discarding nothing but keeping
// output on stderr where go test collects it.
func NewTestLogger() *Logger {
	return NewLogger()
}

func (l *Logger) Info(format string, args ...any) {
	l.sl.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.sl.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.sl.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	l.sl.Debug(fmt.Sprintf(format, args...))
}
