package hostfuncs

import (
	"context"
	"io"

	"github.com/reglet-dev/sexpbridge/bridge"
	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/errors"
	"github.com/reglet-dev/sexpbridge/wireformat"
)

// Host function names.
const (
	WarningFunc    = "R_warning"
	ErrorFunc      = "R_error"
	StringEltFunc  = "R_gostring"
	ListIndexFunc  = "getListElementIndex"
	PrintFunc      = "print_sexp"
	DrainWarnsFunc = "drain_warnings"
)

// ShimBundle returns a bundle exposing the adapter's five boundary
// operations. R_error never produces a response: the native fatal error it
// raises propagates out of the registry as a panic.
//
// Contract violations (stale handle, wrong type, index out of range) are
// reported in the response's error field.
func ShimBundle(adapter *bridge.Adapter) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			WarningFunc: NewJSONHandler(func(ctx context.Context, req wireformat.MessageWire) wireformat.AckWire {
				ctx, cancel := requestContext(ctx, req.Context)
				defer cancel()
				adapter.ForwardWarning(ctx, []byte(req.Message))
				return wireformat.AckWire{OK: true}
			}),
			ErrorFunc: NewJSONHandler(func(ctx context.Context, req wireformat.MessageWire) wireformat.AckWire {
				ctx, cancel := requestContext(ctx, req.Context)
				defer cancel()
				adapter.ForwardError(ctx, []byte(req.Message))
				return wireformat.AckWire{} // unreachable
			}),
			StringEltFunc: NewJSONHandler(func(ctx context.Context, req wireformat.StringEltRequestWire) wireformat.StringEltResponseWire {
				_, cancel := requestContext(ctx, req.Context)
				defer cancel()

				var desc entities.StringDescriptor
				if detail := guard(func() { desc = adapter.ExtractString(toHandle(req.Vector), req.Index) }); detail != nil {
					return wireformat.StringEltResponseWire{Error: detail}
				}
				return wireformat.StringEltResponseWire{
					Value:      adapter.HostString(desc),
					Descriptor: desc.Pack(),
					Ptr:        desc.Ptr,
					Len:        desc.Len,
				}
			}),
			ListIndexFunc: NewJSONHandler(func(ctx context.Context, req wireformat.ListIndexRequestWire) wireformat.ListIndexResponseWire {
				_, cancel := requestContext(ctx, req.Context)
				defer cancel()

				index := bridge.NotFound
				if detail := guard(func() { index = adapter.FindNamedIndex(toHandle(req.List), []byte(req.Name)) }); detail != nil {
					return wireformat.ListIndexResponseWire{Error: detail, Index: bridge.NotFound}
				}
				return wireformat.ListIndexResponseWire{Index: index}
			}),
			PrintFunc: NewJSONHandler(func(ctx context.Context, req wireformat.ObjectWire) wireformat.ObjectWire {
				ctx, cancel := requestContext(ctx, req.Context)
				defer cancel()

				var out entities.Handle
				if detail := guard(func() { out = adapter.DispatchPrint(ctx, toHandle(req.Object)) }); detail != nil {
					return wireformat.ObjectWire{Error: detail, Object: req.Object}
				}

				summary := NewSummary(DefaultMaxOutputSize)
				_, _ = io.WriteString(summary, bridge.Format(adapter.Runtime(), out))
				return wireformat.ObjectWire{
					Object:           fromHandle(out),
					Summary:          summary.String(),
					SummaryTruncated: summary.Truncated(),
				}
			}),
		},
	}
}

// WarningSource is the part of a native runtime that keeps pending warnings.
type WarningSource interface {
	Warnings() []entities.Diagnostic
	DroppedWarnings() int
}

// DiagnosticsBundle returns a bundle with drain_warnings, which hands the
// pending native warnings to the caller and clears them.
func DiagnosticsBundle(source WarningSource) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			DrainWarnsFunc: NewJSONHandler(func(ctx context.Context, req wireformat.DrainRequestWire) wireformat.DiagnosticsWire {
				_, cancel := requestContext(ctx, req.Context)
				defer cancel()

				pending := source.Warnings()
				resp := wireformat.DiagnosticsWire{
					Warnings: make([]wireformat.DiagnosticWire, 0, len(pending)),
					Dropped:  source.DroppedWarnings(),
				}
				for _, d := range pending {
					resp.Warnings = append(resp.Warnings, wireformat.DiagnosticWire{
						Time:      d.Time,
						Severity:  string(d.Severity),
						Message:   d.Message,
						Truncated: d.Truncated,
					})
				}
				return resp
			}),
		},
	}
}

// guard runs f and turns a contract violation raised by the native runtime
// into its wire detail. Native fatal errors and other panics pass through.
func guard(f func()) (detail *wireformat.ErrorDetail) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err, ok := r.(error)
		if !ok {
			panic(r)
		}
		d := errors.ToErrorDetail(err)
		switch d.Type {
		case "handle", "type", "bounds":
			detail = ToWireError(d)
		default:
			panic(r)
		}
	}()
	f()
	return nil
}

func toHandle(w wireformat.HandleWire) entities.Handle {
	return entities.Handle{Index: w.Index, Generation: w.Generation}
}

func fromHandle(h entities.Handle) wireformat.HandleWire {
	return wireformat.HandleWire{Index: h.Index, Generation: h.Generation}
}
