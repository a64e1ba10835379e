// Package logger implements a logging adapter using log/slog.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/hdlbuild/internal/core/ports"
)

// chainLink is the part of zerr.Error the pretty renderer relies on: its own
// message without the cause, and the metadata attached at that level.
type chainLink interface {
	Message() string
	Metadata() map[string]any
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	jsonMode bool
	output   io.Writer
	level    *slog.LevelVar
}

// New creates a new Logger writing pretty output to stderr at info level.
func New() ports.Logger {
	level := &slog.LevelVar{}
	level.Set(slog.LevelInfo)

	l := &Logger{output: os.Stderr, level: level}
	l.logger = slog.New(l.newHandler())
	return l
}

func (l *Logger) newHandler() slog.Handler {
	opts := &slog.HandlerOptions{Level: l.level}
	if l.jsonMode {
		return slog.NewJSONHandler(l.output, opts)
	}
	return NewPrettyHandler(l.output, opts)
}

// SetOutput updates the logger's output destination.
// It preserves the current JSON mode setting. If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.logger = slog.New(l.newHandler())
}

// SetJSON switches between JSON and pretty logging.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.logger = slog.New(l.newHandler())
}

// SetVerbosity maps a -v count to a level: 0 shows warnings and errors,
// 1 adds info and 2 or more adds debug.
func (l *Logger) SetVerbosity(v int) {
	switch {
	case v <= 0:
		l.level.Set(slog.LevelWarn)
	case v == 1:
		l.level.Set(slog.LevelInfo)
	default:
		l.level.Set(slog.LevelDebug)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error. In pretty mode the zerr chain is rendered one cause per
// line, followed by the metadata collected along it.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err == nil {
		return
	}

	if l.jsonMode {
		l.logger.Error("operation failed", "error", err)
		return
	}

	messages, attrs := walkChain(err)
	l.logger.LogAttrs(context.Background(), slog.LevelError, formatErrorChain(messages), attrs...)
}

// walkChain splits an error into display messages and metadata attributes.
// zerr levels contribute their own message (empty ones come from zerr.With on a
// plain error and are skipped); the first plain error contributes its full text
// and ends the walk. Keys set closer to the top of the chain win.
func walkChain(err error) ([]string, []slog.Attr) {
	var messages []string
	meta := make(map[string]any)

	for current := err; current != nil; current = errors.Unwrap(current) {
		link, ok := current.(chainLink)
		if !ok {
			messages = append(messages, current.Error())
			break
		}
		if msg := link.Message(); msg != "" {
			messages = append(messages, msg)
		}
		for k, v := range link.Metadata() {
			if _, seen := meta[k]; !seen {
				meta[k] = v
			}
		}
	}

	attrs := make([]slog.Attr, 0, len(meta))
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		attrs = append(attrs, slog.Any(k, meta[k]))
	}
	return messages, attrs
}

func formatErrorChain(messages []string) string {
	var lines []string

	for i, msg := range messages {
		parts := strings.Split(msg, "\n")

		switch i {
		case 0:
			lines = append(lines, "Error: "+parts[0])
			for _, line := range parts[1:] {
				lines = append(lines, "       "+line)
			}
			continue
		case 1:
			lines = append(lines, "", "  Caused by:")
		}

		lines = append(lines, "    → "+parts[0])
		for _, line := range parts[1:] {
			lines = append(lines, "      "+line)
		}
	}

	return strings.Join(lines, "\n")
}
