package wazero

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/sexpbridge/hostfuncs"
	"github.com/reglet-dev/sexpbridge/internal/abi"
)

// Default host module names.
const (
	DefaultShimModule     = "rgo"
	DefaultRegistryModule = "rgo_host"
)

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Memory, when set, is read and written instead of the caller's memory.
	// The shim sets it to the arena that packed descriptors point into.
	Memory api.Memory

	// Logger receives adapter errors. Default is slog.Default().
	Logger *slog.Logger

	// ModuleName is the host module name.
	ModuleName string

	// CustomHandlers allows adding additional wazero-specific handlers that
	// don't fit the standard ByteHandler pattern.
	CustomHandlers []CustomHandler

	// MaxRequestSize limits the size of incoming requests from guest memory.
	// Default is 1MB.
	MaxRequestSize uint32
}

// CustomHandler represents a custom wazero handler that doesn't use the standard
// packed i64 request/response pattern.
type CustomHandler struct {
	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// Name is the exported function name.
	Name string

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		if name != "" {
			c.ModuleName = name
		}
	}
}

// WithMaxRequestSize sets the maximum request size from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithCustomHandler adds a custom wazero handler.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

// WithFallbackMemory sets the memory used in place of the caller's. Spans
// passed to host functions are then addressed in mem, whatever the caller
// exports.
func WithFallbackMemory(mem api.Memory) AdapterOption {
	return func(c *AdapterConfig) {
		c.Memory = mem
	}
}

// WithLogger sets the logger for adapter errors.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func defaultAdapterConfig(moduleName string) AdapterConfig {
	return AdapterConfig{
		ModuleName:     moduleName,
		MaxRequestSize: hostfuncs.DefaultMaxRequestSize,
		Logger:         slog.Default(),
	}
}

// memory returns the configured memory when set, else the caller's own.
// A module without memory reports a typed nil, which counts as none.
func (c *AdapterConfig) memory(mod api.Module) api.Memory {
	if c.Memory != nil {
		return c.Memory
	}
	if mod == nil {
		return nil
	}
	mem := mod.Memory()
	if mem == nil {
		return nil
	}
	if v := reflect.ValueOf(mem); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil
	}
	return mem
}

// RegisterWithRuntime exports every handler of registry on a host module
// (default "rgo_host").
//
// Each handler is wrapped to:
//   - Read request bytes from guest memory using the packed i64 ptr+len format
//   - Invoke the ByteHandler with the request payload
//   - Allocate response memory in the guest using the "allocate" export
//   - Write response bytes to guest memory
//   - Return packed i64 ptr+len of the response
//
// A native fatal error raised by a handler (R_error) aborts the guest call;
// wazero reports it to the caller as the call's error.
//
// Example:
//
//	registry, _ := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.ShimBundle(adapter)),
//	)
//	err := wazero.RegisterWithRuntime(ctx, runtime, registry)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig(DefaultRegistryModule)
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	for _, name := range registry.Names() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				handleRegistryCall(ctx, mod, stack, registry, name, &cfg)
			}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
			Export(name)
	}

	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("failed to instantiate host module %s: %w", cfg.ModuleName, err)
	}
	return nil
}

// handleRegistryCall reads the request from guest memory, invokes the
// handler, and writes the response.
func handleRegistryCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.HandlerRegistry, name string, cfg *AdapterConfig) {
	caller := callerName(ctx, mod)

	requestBytes, errResp, ok := readRequest(mod, stack[0], cfg)
	if !ok {
		cfg.Logger.ErrorContext(ctx, "wazero: "+errResp.Message, "function", name, "caller", caller)
		stack[0] = writeErrorResponse(ctx, mod, errResp, cfg)
		return
	}

	responseBytes, err := registry.Invoke(ctx, name, requestBytes)
	if err != nil {
		cfg.Logger.ErrorContext(ctx, "wazero: handler invocation failed", "function", name, "caller", caller, "error", err)
		stack[0] = writeErrorResponse(ctx, mod, hostfuncs.NewInternalError(err.Error()), cfg)
		return
	}

	stack[0] = writeResponse(ctx, mod, responseBytes, cfg)
}

// readRequest validates and reads the packed request. The returned bytes
// are a view of guest memory.
func readRequest(mod api.Module, packed uint64, cfg *AdapterConfig) ([]byte, hostfuncs.ErrorResponse, bool) {
	ptr, length, ok := unpackPtrLen(packed)
	if !ok {
		return nil, hostfuncs.NewValidationError(fmt.Sprintf("null pointer with length %d", length)), false
	}
	if length > cfg.MaxRequestSize {
		return nil, hostfuncs.NewValidationError(
			fmt.Sprintf("request size %d exceeds maximum %d bytes", length, cfg.MaxRequestSize)), false
	}
	if length == 0 {
		return nil, hostfuncs.ErrorResponse{}, true
	}
	mem := cfg.memory(mod)
	if mem == nil {
		return nil, hostfuncs.NewInternalError("caller has no memory"), false
	}
	b, ok := mem.Read(ptr, length)
	if !ok {
		return nil, hostfuncs.NewInternalError("failed to read request from guest memory"), false
	}
	return b, hostfuncs.ErrorResponse{}, true
}

// writeResponse allocates memory in the guest and writes the response bytes.
// Returns packed ptr+len or 0 on failure.
func writeResponse(ctx context.Context, mod api.Module, data []byte, cfg *AdapterConfig) uint64 {
	allocateFn := mod.ExportedFunction("allocate")
	if allocateFn == nil {
		cfg.Logger.ErrorContext(ctx, "wazero: guest module missing 'allocate' export", "caller", callerName(ctx, mod))
		return 0
	}

	results, err := allocateFn.Call(ctx, uint64(len(data)))
	if err != nil {
		cfg.Logger.ErrorContext(ctx, "wazero: failed to call guest allocate", "error", err)
		return 0
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
	if ptr == 0 {
		cfg.Logger.ErrorContext(ctx, "wazero: guest allocate returned null", "bytes", len(data))
		return 0
	}

	if mem := cfg.memory(mod); mem == nil || !mem.Write(ptr, data) {
		cfg.Logger.ErrorContext(ctx, "wazero: failed to write response to guest memory")
		return 0
	}

	return abi.PackPtrLen(ptr, uint32(len(data))) //nolint:gosec // G115: Data length is bounded by config
}

func writeErrorResponse(ctx context.Context, mod api.Module, errResp hostfuncs.ErrorResponse, cfg *AdapterConfig) uint64 {
	return writeResponse(ctx, mod, errResp.ToJSON(), cfg)
}

// unpackPtrLen is abi.UnpackPtrLen for untrusted input: a null pointer
// with a length is reported instead of panicking.
func unpackPtrLen(packed uint64) (ptr, length uint32, ok bool) {
	ptr = uint32(packed >> abi.PtrHighBits) //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed)                 //nolint:gosec // G115: Packed format stores 32-bit values
	if ptr == 0 && length > 0 {
		return ptr, length, false
	}
	return ptr, length, true
}
