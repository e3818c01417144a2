// Package wasmcontext converts between Go contexts and the context carried
// in host-function requests.
package wasmcontext

import (
	stdcontext "context"
	"time"

	"github.com/reglet-dev/sexpbridge/wireformat"
)

type contextKey string

// RequestIDKey is the context key for the caller's request ID.
const RequestIDKey contextKey = "request_id"

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx stdcontext.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx stdcontext.Context, id string) stdcontext.Context {
	return stdcontext.WithValue(ctx, RequestIDKey, id)
}

// ContextToWire captures the deadline, cancellation and request ID of ctx.
func ContextToWire(ctx stdcontext.Context) wireformat.ContextWireFormat {
	wire := wireformat.ContextWireFormat{RequestID: RequestID(ctx)}

	if deadline, ok := ctx.Deadline(); ok {
		wire.Deadline = &deadline
		if timeout := time.Until(deadline); timeout > 0 {
			wire.TimeoutMs = timeout.Milliseconds()
		}
	}

	select {
	case <-ctx.Done():
		wire.Canceled = true
	default:
	}

	return wire
}

// WireToContext derives a context from parent that honours wire.
// If parent is nil, context.Background() is used. The caller must call the
// returned CancelFunc.
func WireToContext(parent stdcontext.Context, wire wireformat.ContextWireFormat) (stdcontext.Context, stdcontext.CancelFunc) {
	if parent == nil {
		parent = stdcontext.Background()
	}

	var (
		ctx    stdcontext.Context
		cancel stdcontext.CancelFunc
	)
	switch {
	case wire.Deadline != nil:
		ctx, cancel = stdcontext.WithDeadline(parent, *wire.Deadline)
	case wire.TimeoutMs > 0:
		ctx, cancel = stdcontext.WithTimeout(parent, time.Duration(wire.TimeoutMs)*time.Millisecond)
	default:
		ctx, cancel = stdcontext.WithCancel(parent)
	}

	if wire.RequestID != "" {
		ctx = WithRequestID(ctx, wire.RequestID)
	}

	if wire.Canceled {
		cancel()
	}

	return ctx, cancel
}
