package ports

import (
	"context"

	"github.com/reglet-dev/sexpbridge/domain/entities"
)

// DiagnosticSink receives every diagnostic raised by the native runtime.
type DiagnosticSink interface {
	Emit(ctx context.Context, d entities.Diagnostic)
}
