// Package logger carries per-request attributes through the context so
// every record emitted while serving a written API request shares them,
// most importantly the request id the access log stamps on arrival.
package logger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey string

const attrsKey contextKey = "written_log_attrs"

// ContextHandler is a [slog.Handler] that appends to each record any
// attributes stashed in its context by [Ctx] or [WithRequestID].
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(handler slog.Handler) ContextHandler {
	return ContextHandler{Handler: handler}
}

// Handle implements [slog.Handler].
func (h ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs, ok := ctx.Value(attrsKey).([]slog.Attr); ok {
		record.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, record)
}

// Ctx attaches attributes to the context for the [ContextHandler] to pick
// up later.
func Ctx(ctx context.Context, toAppend ...slog.Attr) context.Context {
	attrs, _ := ctx.Value(attrsKey).([]slog.Attr)

	// Full slice expression so sibling contexts never share a backing array.
	attrs = append(attrs[:len(attrs):len(attrs)], toAppend...)

	return context.WithValue(ctx, attrsKey, attrs)
}

// WithRequestID tags the context with a fresh request id. Every record
// logged while handling the request then carries it.
func WithRequestID(ctx context.Context) context.Context {
	return Ctx(ctx, slog.String("request_id", uuid.NewString()))
}
