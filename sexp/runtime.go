package sexp

import (
	"fmt"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/ports"
)

// Runtime is an instance of the native object model. It owns every object
// it hands out, along with the linear memory that holds CHARSXP bytes.
//
// A Runtime is not safe for concurrent use. Like the interpreter it stands
// in for, it must only be driven from one goroutine at a time.
type Runtime struct {
	cfg  entities.RuntimeConfig
	mem  ports.LinearMemory
	heap *heap
	sink ports.DiagnosticSink

	slots     []slot
	freeSlots []uint32

	cache   map[string]entities.Handle
	symbols map[string]entities.Handle

	protect   []entities.Handle
	preserved map[entities.Handle]int

	warnings        []entities.Diagnostic
	droppedWarnings int

	naString entities.Handle
	blank    entities.Handle
	namesSym entities.Handle
}

// Stats is a snapshot of a runtime's bookkeeping.
type Stats struct {
	Objects       int `json:"objects"`
	FreeSlots     int `json:"free_slots"`
	LiveBytes     int `json:"live_bytes"`
	MemoryBytes   int `json:"memory_bytes"`
	Protected     int `json:"protected"`
	Preserved     int `json:"preserved"`
	CachedStrings int `json:"cached_strings"`
	Symbols       int `json:"symbols"`
}

type runtimeConfig struct {
	mem  ports.LinearMemory
	sink ports.DiagnosticSink
	cfg  entities.RuntimeConfig
}

// Option configures a Runtime.
type Option func(*runtimeConfig)

// WithMemory places CHARSXP bytes in mem instead of a private slab.
// Any WebAssembly memory (wazero api.Memory) satisfies LinearMemory.
func WithMemory(mem ports.LinearMemory) Option {
	return func(c *runtimeConfig) {
		if mem != nil {
			c.mem = mem
		}
	}
}

// WithConfig sets the runtime tunables.
func WithConfig(cfg entities.RuntimeConfig) Option {
	return func(c *runtimeConfig) {
		c.cfg = cfg
	}
}

// WithDiagnosticSink receives every warning and error raised.
func WithDiagnosticSink(sink ports.DiagnosticSink) Option {
	return func(c *runtimeConfig) {
		c.sink = sink
	}
}

// New creates a runtime with its distinguished objects already allocated.
func New(opts ...Option) (*Runtime, error) {
	cfg := runtimeConfig{cfg: entities.DefaultRuntimeConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.mem == nil {
		cfg.mem = NewSlab(cfg.cfg.InitialPages, cfg.cfg.MaxPages())
	}

	r := &Runtime{
		cfg:       cfg.cfg,
		mem:       cfg.mem,
		heap:      newHeap(cfg.mem, cfg.cfg.MaxMemoryBytes),
		sink:      cfg.sink,
		slots:     []slot{{gen: 0, obj: &object{typ: entities.NILSXP}}},
		cache:     make(map[string]entities.Handle),
		symbols:   make(map[string]entities.Handle),
		preserved: make(map[entities.Handle]int),
	}

	var err error
	if r.naString, err = r.newChar([]byte("NA")); err != nil {
		return nil, fmt.Errorf("failed to allocate NA_STRING: %w", err)
	}
	if r.blank, err = r.MkChar(""); err != nil {
		return nil, fmt.Errorf("failed to allocate R_BlankString: %w", err)
	}
	r.namesSym = r.Symbol("names")
	return r, nil
}

// Config returns the tunables the runtime was created with.
func (r *Runtime) Config() entities.RuntimeConfig {
	return r.cfg
}

// Memory returns the linear memory holding CHARSXP bytes.
func (r *Runtime) Memory() ports.LinearMemory {
	return r.mem
}

// Stats returns a snapshot of the runtime's bookkeeping.
func (r *Runtime) Stats() Stats {
	return Stats{
		Objects:       len(r.slots) - 1 - len(r.freeSlots),
		FreeSlots:     len(r.freeSlots),
		LiveBytes:     r.heap.live,
		MemoryBytes:   int(r.mem.Size()),
		Protected:     len(r.protect),
		Preserved:     len(r.preserved),
		CachedStrings: len(r.cache),
		Symbols:       len(r.symbols),
	}
}

var _ ports.NativeRuntime = (*Runtime)(nil)
