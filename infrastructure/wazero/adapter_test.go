package wazero

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/sexpbridge/hostfuncs"
	"github.com/reglet-dev/sexpbridge/internal/abi"
)

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig(DefaultRegistryModule)

	assert.Equal(t, "rgo_host", cfg.ModuleName)
	assert.Equal(t, uint32(hostfuncs.DefaultMaxRequestSize), cfg.MaxRequestSize)
	assert.NotNil(t, cfg.Logger)
	assert.Nil(t, cfg.Memory)
}

func TestAdapterOptions(t *testing.T) {
	cfg := defaultAdapterConfig(DefaultShimModule)

	WithModuleName("custom_module")(&cfg)
	assert.Equal(t, "custom_module", cfg.ModuleName)

	WithModuleName("")(&cfg)
	assert.Equal(t, "custom_module", cfg.ModuleName, "empty name keeps the current one")

	WithMaxRequestSize(2048)(&cfg)
	assert.Equal(t, uint32(2048), cfg.MaxRequestSize)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	WithLogger(logger)(&cfg)
	assert.Same(t, logger, cfg.Logger)
	WithLogger(nil)(&cfg)
	assert.Same(t, logger, cfg.Logger)

	WithCustomHandler(CustomHandler{Name: "test_handler"})(&cfg)
	require.Len(t, cfg.CustomHandlers, 1)
	assert.Equal(t, "test_handler", cfg.CustomHandlers[0].Name)
}

func TestUnpackPtrLen(t *testing.T) {
	tests := []struct {
		ptr    uint32
		length uint32
	}{
		{0, 0},
		{1, 1},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x12345678, 0x9ABCDEF0},
		{100, 50},
	}

	for _, tt := range tests {
		gotPtr, gotLen, ok := unpackPtrLen(abi.PackPtrLen(tt.ptr, tt.length))
		assert.True(t, ok)
		assert.Equal(t, tt.ptr, gotPtr)
		assert.Equal(t, tt.length, gotLen)
	}

	_, length, ok := unpackPtrLen(uint64(7))
	assert.False(t, ok, "null pointer with a length")
	assert.Equal(t, uint32(7), length)
}

// fakeModule stands in for a guest: it exposes a real memory and an
// "allocate" export that hands out a fixed address.
type fakeModule struct {
	api.Module
	mem      api.Memory
	allocate api.Function
}

func (m *fakeModule) Name() string       { return "guest" }
func (m *fakeModule) Memory() api.Memory { return m.mem }

func (m *fakeModule) ExportedFunction(name string) api.Function {
	if name == "allocate" && m.allocate != nil {
		return m.allocate
	}
	return nil
}

type fakeAllocate struct {
	api.Function
	ptr   uint64
	err   error
	calls []uint64
}

func (f *fakeAllocate) Call(_ context.Context, params ...uint64) ([]uint64, error) {
	f.calls = append(f.calls, params...)
	if f.err != nil {
		return nil, f.err
	}
	return []uint64{f.ptr}, nil
}

func newGuestMemory(t *testing.T) api.Memory {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = r.Close(ctx) })

	mm, err := NewMemoryModule(ctx, r, "guest_memory", 1, 1)
	require.NoError(t, err)
	return mm.Memory()
}

func TestReadRequest(t *testing.T) {
	mem := newGuestMemory(t)
	require.True(t, mem.Write(64, []byte("payload")))
	mod := &fakeModule{mem: mem}
	cfg := defaultAdapterConfig(DefaultRegistryModule)

	b, _, ok := readRequest(mod, abi.PackPtrLen(64, 7), &cfg)
	require.True(t, ok)
	assert.Equal(t, "payload", string(b))

	b, _, ok = readRequest(mod, 0, &cfg)
	assert.True(t, ok, "empty request")
	assert.Empty(t, b)

	_, errResp, ok := readRequest(mod, uint64(3), &cfg)
	assert.False(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Error)

	_, errResp, ok = readRequest(mod, abi.PackPtrLen(mem.Size()-2, 8), &cfg)
	assert.False(t, ok)
	assert.Equal(t, "INTERNAL_ERROR", errResp.Error)

	small := cfg
	WithMaxRequestSize(4)(&small)
	_, errResp, ok = readRequest(mod, abi.PackPtrLen(64, 7), &small)
	assert.False(t, ok)
	assert.Contains(t, errResp.Message, "exceeds maximum 4 bytes")
}

// newBareGuest instantiates an empty guest module, which has no memory.
func newBareGuest(t *testing.T) api.Module {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = r.Close(ctx) })

	mod, err := r.InstantiateWithConfig(ctx,
		[]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		wazero.NewModuleConfig().WithName("bare"))
	require.NoError(t, err)
	return mod
}

func TestReadRequest_FallbackMemory(t *testing.T) {
	bare := newBareGuest(t)
	mem := newGuestMemory(t)
	require.True(t, mem.Write(8, []byte("hi")))
	cfg := defaultAdapterConfig(DefaultRegistryModule)

	assert.Nil(t, cfg.memory(bare), "a guest without memory has none")
	_, errResp, ok := readRequest(bare, abi.PackPtrLen(8, 2), &cfg)
	assert.False(t, ok)
	assert.Equal(t, "caller has no memory", errResp.Message)

	WithFallbackMemory(mem)(&cfg)
	b, _, ok := readRequest(bare, abi.PackPtrLen(8, 2), &cfg)
	require.True(t, ok)
	assert.Equal(t, "hi", string(b))
}

func TestReadRequest_ConfiguredMemoryWins(t *testing.T) {
	own := newGuestMemory(t)
	require.True(t, own.Write(8, []byte("own")))
	arena := newGuestMemory(t)
	require.True(t, arena.Write(8, []byte("are")))
	mod := &fakeModule{mem: own}
	cfg := defaultAdapterConfig(DefaultShimModule)

	b, _, ok := readRequest(mod, abi.PackPtrLen(8, 3), &cfg)
	require.True(t, ok)
	assert.Equal(t, "own", string(b))

	WithFallbackMemory(arena)(&cfg)
	b, _, ok = readRequest(mod, abi.PackPtrLen(8, 3), &cfg)
	require.True(t, ok)
	assert.Equal(t, "are", string(b))
}

func TestWriteResponse_CallerWithoutMemory(t *testing.T) {
	cfg := defaultAdapterConfig(DefaultRegistryModule)
	WithLogger(slog.New(slog.DiscardHandler))(&cfg)

	assert.Zero(t, writeResponse(context.Background(), newBareGuest(t), []byte("x"), &cfg), "no allocate export")
}

func newEchoRegistry(t *testing.T) *hostfuncs.HandlerRegistry {
	t.Helper()
	reg, err := hostfuncs.NewRegistry(
		hostfuncs.WithByteHandler("echo", func(_ context.Context, payload []byte) ([]byte, error) {
			return append([]byte("echo:"), payload...), nil
		}),
		hostfuncs.WithByteHandler("broken", func(context.Context, []byte) ([]byte, error) {
			return nil, errors.New("handler exploded")
		}),
	)
	require.NoError(t, err)
	return reg
}

func TestHandleRegistryCall(t *testing.T) {
	mem := newGuestMemory(t)
	require.True(t, mem.Write(16, []byte("ping")))
	alloc := &fakeAllocate{ptr: 4096}
	mod := &fakeModule{mem: mem, allocate: alloc}
	cfg := defaultAdapterConfig(DefaultRegistryModule)

	stack := []uint64{abi.PackPtrLen(16, 4)}
	handleRegistryCall(context.Background(), mod, stack, newEchoRegistry(t), "echo", &cfg)

	ptr, length := abi.UnpackPtrLen(stack[0])
	assert.Equal(t, uint32(4096), ptr)
	assert.Equal(t, []uint64{9}, alloc.calls)
	out, ok := mem.Read(ptr, length)
	require.True(t, ok)
	assert.Equal(t, "echo:ping", string(out))
}

func TestHandleRegistryCall_Errors(t *testing.T) {
	tests := []struct {
		name     string
		function string
		packed   uint64
		wantCode string
		wantLog  bool
	}{
		{name: "handler error", function: "broken", packed: 0, wantCode: "INTERNAL_ERROR", wantLog: true},
		{name: "unknown function", function: "missing", packed: 0, wantCode: "NOT_FOUND"},
		{name: "null pointer", function: "echo", packed: uint64(12), wantCode: "VALIDATION_ERROR", wantLog: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := newGuestMemory(t)
			mod := &fakeModule{mem: mem, allocate: &fakeAllocate{ptr: 2048}}
			var logs bytes.Buffer
			cfg := defaultAdapterConfig(DefaultRegistryModule)
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil)))(&cfg)

			stack := []uint64{tt.packed}
			handleRegistryCall(context.Background(), mod, stack, newEchoRegistry(t), tt.function, &cfg)

			ptr, length := abi.UnpackPtrLen(stack[0])
			raw, ok := mem.Read(ptr, length)
			require.True(t, ok)
			var resp hostfuncs.ErrorResponse
			require.NoError(t, json.Unmarshal(raw, &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
			if tt.wantLog {
				assert.Contains(t, logs.String(), "caller=guest")
			}
		})
	}
}

func TestWriteResponse_Failures(t *testing.T) {
	mem := newGuestMemory(t)
	cfg := defaultAdapterConfig(DefaultRegistryModule)
	WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(&cfg)
	ctx := context.Background()

	assert.Zero(t, writeResponse(ctx, &fakeModule{mem: mem}, []byte("x"), &cfg), "no allocate export")
	assert.Zero(t, writeResponse(ctx, &fakeModule{mem: mem, allocate: &fakeAllocate{err: errors.New("oom")}}, []byte("x"), &cfg))
	assert.Zero(t, writeResponse(ctx, &fakeModule{mem: mem, allocate: &fakeAllocate{ptr: 0}}, []byte("x"), &cfg), "null allocation")
	assert.Zero(t, writeResponse(ctx, &fakeModule{mem: mem, allocate: &fakeAllocate{ptr: uint64(mem.Size())}}, []byte("x"), &cfg), "out of bounds")
}

func TestCallerName(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "guest", callerName(ctx, &fakeModule{}))
	assert.Empty(t, callerName(ctx, nil))

	named := WithCallerName(ctx, "plugin-a")
	assert.Equal(t, "plugin-a", callerName(named, &fakeModule{}))

	_, ok := CallerNameFromContext(WithCallerName(ctx, ""))
	assert.False(t, ok)
}
