package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// theme holds the escape codes a PrettyHandler paints with. The zero theme
// paints nothing.
type theme struct {
	reset, dim, bold, attrs string
	debug, info, warn, err  string
}

var ansiTheme = theme{
	reset: "\033[0m",
	dim:   "\033[90m",
	bold:  "\033[1m",
	attrs: "\033[36m",
	debug: "\033[90m",
	info:  "\033[34m",
	warn:  "\033[33m",
	err:   "\033[31m",
}

func (t theme) level(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return t.err
	case l >= slog.LevelWarn:
		return t.warn
	case l >= slog.LevelInfo:
		return t.info
	}
	return t.debug
}

// PrettyHandler is a slog.Handler for CLI output:
//
//	[2006-01-02 15:04:05] INFO  classified sequence class=2 log_likelihood=-41.2
//
// Floats, including []float64 values such as probability vectors, are
// shortened to six significant digits. Attributes added with WithAttrs are
// rendered once, under the group that was open when they were added.
type PrettyHandler struct {
	level  slog.Leveler
	w      io.Writer
	mu     *sync.Mutex
	theme  theme
	group  string
	preset []byte
}

// NewPrettyHandler creates a colored PrettyHandler. Only opts.Level is used.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{w: w, mu: &sync.Mutex{}, theme: ansiTheme}
	if opts != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.level != nil {
		minLevel = h.level.Level()
	}
	return level >= minLevel
}

// Handle formats and writes a log record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	t := h.theme
	buf := make([]byte, 0, 256)

	buf = append(buf, t.dim...)
	buf = append(buf, '[')
	buf = r.Time.AppendFormat(buf, time.DateTime)
	buf = append(buf, ']')
	buf = append(buf, t.reset...)

	buf = append(buf, ' ')
	buf = append(buf, t.level(r.Level)...)
	buf = append(buf, t.bold...)
	buf = fmt.Appendf(buf, "%-5s", r.Level.String())
	buf = append(buf, t.reset...)

	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	var rec []byte
	r.Attrs(func(a slog.Attr) bool {
		rec = appendAttr(rec, a, h.group)
		return true
	})
	if len(h.preset)+len(rec) > 0 {
		buf = append(buf, t.attrs...)
		buf = append(buf, h.preset...)
		buf = append(buf, rec...)
		buf = append(buf, t.reset...)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns a handler that writes attrs on every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.preset = slices.Clone(h.preset)
	for _, a := range attrs {
		c.preset = appendAttr(c.preset, a, h.group)
	}
	return &c
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.group = qualify(h.group, name)
	return &c
}

func qualify(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

// appendAttr writes " key=value". Groups are flattened into dotted keys and
// an empty attribute writes nothing.
func appendAttr(buf []byte, a slog.Attr, group string) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			group = qualify(group, a.Key)
		}
		for _, ga := range a.Value.Group() {
			buf = appendAttr(buf, ga, group)
		}
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, qualify(group, a.Key)...)
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'g', 6, 64)
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339)
	case slog.KindAny:
		if xs, ok := v.Any().([]float64); ok {
			buf = append(buf, '[')
			for i, x := range xs {
				if i > 0 {
					buf = append(buf, ' ')
				}
				buf = strconv.AppendFloat(buf, x, 'g', 6, 64)
			}
			return append(buf, ']')
		}
	}
	return appendString(buf, v.String())
}

func appendString(buf []byte, s string) []byte {
	if needsQuoting(s) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func needsQuoting(s string) bool {
	return strings.ContainsAny(s, " \t\n\"=")
}
