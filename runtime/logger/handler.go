package logger

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
)

// ScopeKey is the attribute naming the package that emitted a record. It is
// only added when the handler filters by package.
const ScopeKey = "logger"

// moduleRoot prefixes every function name in this module.
const moduleRoot = "github.com/ErVarunGupta/Streaming-App/"

// Handler is a slog.Handler that copies the logging fields carried by the
// context onto each record. With a LevelTable it also drops records below
// the level configured for the emitting package.
//
// Attribute order is common fields, scope and scope fields, context fields,
// then the record's own attributes.
type Handler struct {
	inner  slog.Handler
	levels *LevelTable
	common []slog.Attr
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler wraps inner. levels may be nil.
func NewHandler(inner slog.Handler, levels *LevelTable, common ...slog.Attr) *Handler {
	return &Handler{inner: inner, levels: levels, common: common}
}

// Enabled is a cheap pre-check. Per-package levels are applied in Handle,
// where the record's PC is known.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.levels != nil && level < h.levels.Min() {
		return false
	}
	return h.inner.Enabled(ctx, level)
}

//nolint:gocritic // slog.Handler takes the record by value
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	out.AddAttrs(h.common...)

	if h.levels != nil {
		scope := scopeOf(r.PC)
		level, fields := h.levels.Lookup(scope)
		if r.Level < level {
			return nil
		}
		if scope != "" {
			out.AddAttrs(slog.String(ScopeKey, scope))
		}
		out.AddAttrs(fields...)
	}

	for _, key := range allContextKeys {
		if s, ok := ctx.Value(key).(string); ok && s != "" {
			out.AddAttrs(slog.String(string(key), s))
		}
	}

	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(a)
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs), levels: h.levels, common: h.common}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name), levels: h.levels, common: h.common}
}

// Unwrap returns the wrapped handler.
func (h *Handler) Unwrap() slog.Handler {
	return h.inner
}

func scopeOf(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	return scopeFromFunc(frame.Function)
}

// scopeFromFunc returns the package path below the module root, e.g.
// "runtime/session" for ".../runtime/session.(*Store).Submit". Functions
// outside the module have no scope.
func scopeFromFunc(fn string) string {
	idx := strings.Index(fn, moduleRoot)
	if idx == -1 {
		return ""
	}
	path := fn[idx+len(moduleRoot):]
	slash := strings.LastIndex(path, "/")
	if dot := strings.Index(path[slash+1:], "."); dot != -1 {
		path = path[:slash+1+dot]
	}
	return path
}
