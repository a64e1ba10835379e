package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/hdlbuild/internal/ui/output"
	"go.trai.ch/hdlbuild/internal/ui/style"
)

// PrettyHandler renders records for a terminal. Errors and warnings carry
// their attributes as an indented "key: value" block below the message so
// that paths and library names stay readable; lower levels append them inline.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// NewPrettyHandler creates a PrettyHandler writing to w, or stderr if w is nil.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	h := &PrettyHandler{out: output.New(w), level: slog.LevelInfo}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	marker, color := levelStyle(r.Level)

	msg := r.Message
	if marker != "" {
		msg = marker + " " + msg
	}

	fields := make([]field, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields = appendField(fields, h.prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.prefix, a)
		return true
	})

	var b strings.Builder
	switch {
	case len(fields) == 0:
		b.WriteString(h.out.String(msg).Foreground(color).String())
	case r.Level >= slog.LevelWarn:
		b.WriteString(h.out.String(msg).Foreground(color).String())
		b.WriteString("\n")
		b.WriteString(h.out.String(fieldBlock(fields)).Foreground(termenv.RGBColor(string(style.Slate))).String())
	default:
		b.WriteString(h.out.String(msg + " " + inlineFields(fields)).Foreground(color).String())
	}
	b.WriteString("\n")

	_, err := h.out.WriteString(b.String())
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(slices.Clip(h.attrs), attrs...)
	return &next
}

// WithGroup returns a new Handler whose attribute keys are prefixed with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func levelStyle(level slog.Level) (string, termenv.Color) {
	switch {
	case level >= slog.LevelError:
		return style.Cross, termenv.RGBColor(string(style.Red))
	case level >= slog.LevelWarn:
		return style.Warning, termenv.RGBColor(string(style.Yellow))
	case level < slog.LevelInfo:
		return style.Dot, termenv.RGBColor(string(style.Iris))
	default:
		return "", termenv.RGBColor(string(style.Slate))
	}
}

type field struct {
	key   string
	value string
}

func appendField(fields []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, sub := range a.Value.Group() {
			fields = appendField(fields, prefix+a.Key+".", sub)
		}
		return fields
	}
	return append(fields, field{key: prefix + a.Key, value: a.Value.String()})
}

func inlineFields(fields []field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.key + "=" + f.value
	}
	return strings.Join(parts, " ")
}

// fieldBlock aligns values on the longest key.
func fieldBlock(fields []field) string {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.key))
	}

	lines := make([]string, 0, len(fields)+1)
	lines = append(lines, "")
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("  %-*s  %s", width+1, f.key+":", f.value))
	}
	return strings.Join(lines, "\n")
}
