// Package log connects log/slog to the native runtime's diagnostic
// channels, in both directions.
//
// NewSink sends native diagnostics to a slog.Logger. NewWarningHandler is a
// slog.Handler that raises host log records as native warnings.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/reglet-dev/sexpbridge/internal/wasmcontext"
)

// Warner is the native warning channel.
type Warner interface {
	Warning(ctx context.Context, msg string)
}

// WarningHandler implements slog.Handler by forwarding each record to the
// native warning channel as "message key=value ...".
type WarningHandler struct {
	w      Warner
	attrs  []LogAttrWire
	group  string
	config handlerConfig
}

// HandlerOption configures the WarningHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Leveler
	addSource bool
}

func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelWarn,
	}
}

// WithLevel sets the minimum level forwarded. Records below it are dropped.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		if level != nil {
			c.level = level
		}
	}
}

// WithSource appends the caller's file:line to each warning.
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// NewWarningHandler creates a handler forwarding to w.
func NewWarningHandler(w Warner, opts ...HandlerOption) *WarningHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &WarningHandler{w: w, config: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *WarningHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.config.level.Level()
}

// Handle raises the record as a native warning. Records that came from the
// native runtime through a sink are skipped so the two directions cannot loop.
func (h *WarningHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := slices.Clone(h.attrs)
	native := false
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == SourceKey && attr.Value.String() == SourceNative {
			native = true
			return false
		}
		attrs = flattenAttr(h.group, attr, attrs)
		return true
	})
	if native {
		return nil
	}

	if id := wasmcontext.RequestID(ctx); id != "" {
		attrs = append(attrs, LogAttrWire{Key: "request_id", Type: "string", Value: id})
	}
	if h.config.addSource && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		attrs = append(attrs, LogAttrWire{
			Key:   slog.SourceKey,
			Type:  "string",
			Value: fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line),
		})
	}

	msg := record.Message
	if len(attrs) > 0 {
		msg += " " + formatAttrs(attrs)
	}
	h.w.Warning(ctx, msg)
	return nil
}

// WithAttrs returns a new WarningHandler that includes the given attributes.
func (h *WarningHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		next.attrs = flattenAttr(h.group, a, next.attrs)
	}
	return &next
}

// WithGroup returns a new WarningHandler that qualifies later attributes
// with name.
func (h *WarningHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = joinKey(h.group, name)
	return &next
}
