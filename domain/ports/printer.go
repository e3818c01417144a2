package ports

import (
	"context"

	"github.com/reglet-dev/sexpbridge/domain/entities"
)

// Printer is host-implemented print logic invoked for native objects.
// It returns the printed value, which is the object itself or a value the
// host derived from it.
type Printer interface {
	Print(ctx context.Context, rt NativeRuntime, obj entities.Handle) (entities.Handle, error)
}
