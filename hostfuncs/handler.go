package hostfuncs

import (
	"context"
	"encoding/json"
	"fmt"
)

// ByteHandler serves one host function: it receives the request bytes a
// guest placed in memory and returns the bytes to copy back. A Go error
// means the host could not produce any response at all.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// HostFunc is a host function over decoded wire types. Failures belong in
// the response value (the wire types carry an Error field), not in a Go
// error.
type HostFunc[Req any, Resp any] func(context.Context, Req) Resp

// NewJSONHandler adapts fn to a ByteHandler that decodes the request as
// JSON and encodes the response. A request that does not decode gets a
// VALIDATION_ERROR ErrorResponse; fn is not called.
//
//	warn := NewJSONHandler(func(ctx context.Context, req wireformat.MessageWire) wireformat.AckWire {
//	    adapter.ForwardWarning(ctx, []byte(req.Message))
//	    return wireformat.AckWire{OK: true}
//	})
func NewJSONHandler[Req any, Resp any](fn HostFunc[Req, Resp]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewValidationError(fmt.Sprintf("failed to unmarshal request: %v", err)).ToJSON(), nil
		}
		out, err := json.Marshal(fn(ctx, req))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return out, nil
	}
}
