package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// Handler writes one line per record, "[time] [value]... message". Attribute
// keys are dropped: the module name is the only attribute the tools log.
// Attributes bound with WithAttrs come before the record's own.
type Handler struct {
	level slog.Leveler
	attrs []slog.Attr
	mu    *sync.Mutex
	out   io.Writer
}

func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &Handler{level: level, mu: &sync.Mutex{}, out: out}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	nh.attrs = append(slices.Clip(h.attrs), attrs...)
	return &nh
}

// WithGroup has nothing to qualify since keys are never printed.
func (h *Handler) WithGroup(string) slog.Handler {
	return h
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	if !r.Time.IsZero() {
		buf.WriteString(r.Time.Format("[2006/01/02 15:04:05] "))
	}
	writeValue := func(a slog.Attr) bool {
		if a.Equal(slog.Attr{}) {
			return true
		}
		buf.WriteByte('[')
		buf.WriteString(a.Value.Resolve().String())
		buf.WriteString("] ")
		return true
	}
	for _, a := range h.attrs {
		writeValue(a)
	}
	r.Attrs(writeValue)
	buf.WriteString(r.Message)
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}
