package wazero

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// MemoryExport is the export name of the memory in a memory module.
const MemoryExport = "memory"

const (
	wasmSectionMemory = 0x05
	wasmSectionExport = 0x07
	wasmLimitsMinMax  = 0x01
	wasmExternMemory  = 0x02
)

// MemoryModule is an instantiated WebAssembly module whose only content is
// an exported linear memory. It gives the native runtime a memory that
// guests can import and address directly.
type MemoryModule struct {
	mod api.Module
}

// NewMemoryModule instantiates a module named name exporting a memory of
// initialPages pages that may grow to maxPages.
func NewMemoryModule(ctx context.Context, runtime wazero.Runtime, name string, initialPages, maxPages uint32) (*MemoryModule, error) {
	if maxPages < initialPages {
		return nil, fmt.Errorf("memory module %s: max pages %d below initial pages %d", name, maxPages, initialPages)
	}
	compiled, err := runtime.CompileModule(ctx, memoryModuleBinary(initialPages, maxPages))
	if err != nil {
		return nil, fmt.Errorf("failed to compile memory module %s: %w", name, err)
	}
	mod, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate memory module %s: %w", name, err)
	}
	return &MemoryModule{mod: mod}, nil
}

// Memory returns the exported memory.
func (m *MemoryModule) Memory() api.Memory {
	return m.mod.ExportedMemory(MemoryExport)
}

// Module returns the underlying module.
func (m *MemoryModule) Module() api.Module {
	return m.mod
}

// Close releases the module.
func (m *MemoryModule) Close(ctx context.Context) error {
	return m.mod.Close(ctx)
}

// memoryModuleBinary encodes a module with one memory section and one
// export section, nothing else.
func memoryModuleBinary(minPages, maxPages uint32) []byte {
	bin := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	memType := []byte{0x01, wasmLimitsMinMax}
	memType = appendULEB128(memType, minPages)
	memType = appendULEB128(memType, maxPages)
	bin = appendSection(bin, wasmSectionMemory, memType)

	exports := []byte{0x01}
	exports = appendULEB128(exports, uint32(len(MemoryExport)))
	exports = append(exports, MemoryExport...)
	exports = append(exports, wasmExternMemory, 0x00)
	return appendSection(bin, wasmSectionExport, exports)
}

func appendSection(bin []byte, id byte, content []byte) []byte {
	bin = append(bin, id)
	bin = appendULEB128(bin, uint32(len(content))) //nolint:gosec // G115: sections are tiny
	return append(bin, content...)
}

func appendULEB128(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b = append(b, c|0x80)
			continue
		}
		return append(b, c)
	}
}
