package wazero

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

type contextKey struct {
	name string
}

var callerNameKey = &contextKey{name: "caller_name"}

// WithCallerName names the guest making host calls under ctx, for logs.
func WithCallerName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, callerNameKey, name)
}

// CallerNameFromContext retrieves the caller name set by WithCallerName.
func CallerNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(callerNameKey).(string)
	return name, ok && name != ""
}

// callerName extracts the caller name from ctx, falling back to the module name.
func callerName(ctx context.Context, mod api.Module) string {
	if name, ok := CallerNameFromContext(ctx); ok {
		return name
	}
	if mod == nil {
		return ""
	}
	return mod.Name()
}
