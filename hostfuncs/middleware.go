package hostfuncs

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/sexpbridge/domain/errors"
)

// Middleware decorates a handler. A registry wraps every handler in the
// same chain, outermost first in WithMiddleware order.
type Middleware func(next ByteHandler) ByteHandler

// PanicRecoveryMiddleware answers a panicking handler with an ErrorResponse
// built by NewPanicError, so a contract violation reaches the guest as
// CONTRACT_VIOLATION JSON. A *errors.RError passes through untouched: R_error
// has to unwind to the runtime's TopLevel.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if _, fatal := errors.AsRError(r); fatal {
					panic(r)
				}
				resp, err = NewPanicError(r).ToJSON(), nil
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware logs each call and its outcome at debug level, tagged
// with the function name and any request id. A nil logger means
// slog.Default().
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			fn := "unknown"
			hc, isHost := ctx.(HostContext)
			if isHost {
				fn = hc.FunctionName()
			}
			log := logger.With("function", fn)
			log.DebugContext(ctx, "invoking host function", "request_bytes", len(payload))

			resp, err := next(ctx, payload)

			// The handler may have attached a request id while it ran.
			if isHost {
				if id := RequestID(hc); id != "" {
					log = log.With("request_id", id)
				}
			}
			if err != nil {
				log.DebugContext(ctx, "host function failed", "error", err)
				return resp, err
			}
			log.DebugContext(ctx, "host function completed", "response_bytes", len(resp))
			return resp, nil
		}
	}
}
