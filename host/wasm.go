package host

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/sexpbridge/domain/errors"
	hostwazero "github.com/reglet-dev/sexpbridge/infrastructure/wazero"
	"github.com/reglet-dev/sexpbridge/internal/abi"
)

func (e *Executor) registerHostFunctions(ctx context.Context) error {
	name := e.config.runtime.ModuleName
	mem := e.arena.Memory()

	if err := hostwazero.RegisterShim(ctx, e.runtime, e.adapter,
		hostwazero.WithModuleName(name),
		hostwazero.WithFallbackMemory(mem),
		hostwazero.WithLogger(e.logger),
	); err != nil {
		return err
	}
	// Registry requests and responses live in the calling guest's memory.
	return hostwazero.RegisterWithRuntime(ctx, e.runtime, e.registry,
		hostwazero.WithModuleName(name+"_host"),
		hostwazero.WithLogger(e.logger),
	)
}

// PluginInstance represents an instantiated guest module.
type PluginInstance struct {
	module api.Module
	name   string
}

// LoadPlugin instantiates a guest module under name. The guest may import
// the shim, the host function registry and the arena memory.
func (e *Executor) LoadPlugin(ctx context.Context, name string, wasmBytes []byte) (*PluginInstance, error) {
	ctx = hostwazero.WithCallerName(ctx, name)
	mod, err := e.runtime.InstantiateWithConfig(ctx, wasmBytes, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	return &PluginInstance{module: mod, name: name}, nil
}

// Name returns the name the plugin was loaded under.
func (p *PluginInstance) Name() string {
	return p.name
}

// Call invokes an export of the plugin. When a host function raised a
// native fatal error during the call, the returned error wraps the
// *errors.RError.
func (p *PluginInstance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	f := p.module.ExportedFunction(name)
	if f == nil {
		return nil, fmt.Errorf("export %q not found", name)
	}
	results, err := f.Call(hostwazero.WithCallerName(ctx, p.name), params...)
	if err != nil {
		var rerr *errors.RError
		if stdErrors.As(err, &rerr) {
			return nil, fmt.Errorf("%s: %w", name, rerr)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return results, nil
}

// CallBytes writes input into the plugin's memory through its "allocate"
// export, calls name with the packed location and copies out the packed
// result.
func (p *PluginInstance) CallBytes(ctx context.Context, name string, input []byte) ([]byte, error) {
	var packed uint64
	if len(input) > 0 {
		allocate := p.module.ExportedFunction("allocate")
		if allocate == nil {
			return nil, fmt.Errorf("guest does not export 'allocate'")
		}
		resAlloc, err := allocate.Call(ctx, uint64(len(input)))
		if err != nil {
			return nil, fmt.Errorf("failed to allocate in guest: %w", err)
		}
		if len(resAlloc) == 0 {
			return nil, fmt.Errorf("allocate returned no results")
		}
		ptr := uint32(resAlloc[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
		if ptr == 0 || p.module.Memory() == nil || !p.module.Memory().Write(ptr, input) {
			return nil, fmt.Errorf("failed to write input to guest memory")
		}
		packed = abi.PackPtrLen(ptr, uint32(len(input))) //nolint:gosec // G115: bounded by guest memory
	}

	results, err := p.Call(ctx, name, packed)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return p.read(results[0])
}

func (p *PluginInstance) read(packed uint64) ([]byte, error) {
	ptr := uint32(packed >> abi.PtrHighBits) //nolint:gosec // G115: Packed format stores 32-bit values
	length := uint32(packed)                 //nolint:gosec // G115: Packed format stores 32-bit values
	if ptr == 0 || length == 0 {
		return nil, fmt.Errorf("null response from plugin")
	}
	mem := p.module.Memory()
	if mem == nil {
		return nil, fmt.Errorf("plugin has no memory")
	}
	data, ok := mem.Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("failed to read response from memory")
	}
	out := make([]byte, length)
	copy(out, data)
	return out, nil
}

// Close releases the plugin module.
func (p *PluginInstance) Close(ctx context.Context) error {
	return p.module.Close(ctx)
}
