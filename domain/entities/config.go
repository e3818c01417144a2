package entities

// RuntimeConfig holds the tunables of a native runtime instance and the
// boundary around it. Field tags drive YAML decoding, JSON schema generation
// and struct validation.
type RuntimeConfig struct {
	// ModuleName is the host module name the shim is exported under.
	ModuleName string `yaml:"module_name" json:"module_name,omitempty" validate:"required" jsonschema:"default=rgo"`

	// LogLevel is the minimum level of host log records (e.g., "debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level" json:"log_level,omitempty" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`

	// MaxMemoryBytes bounds the live bytes held in the native linear memory.
	MaxMemoryBytes int `yaml:"max_memory_bytes" json:"max_memory_bytes,omitempty" validate:"gte=65536" jsonschema:"minimum=65536"`

	// InitialPages is the number of 64KiB pages the linear memory starts with.
	InitialPages uint32 `yaml:"initial_pages" json:"initial_pages,omitempty" validate:"gte=1,lte=65536" jsonschema:"minimum=1,maximum=65536"`

	// ProtectStackSize is the depth of the protection stack.
	ProtectStackSize int `yaml:"protect_stack_size" json:"protect_stack_size,omitempty" validate:"gte=1000,lte=500000" jsonschema:"minimum=1000,maximum=500000"`

	// WarningLength is the maximum length in bytes of a warning message.
	WarningLength int `yaml:"warning_length" json:"warning_length,omitempty" validate:"gte=100,lte=8170" jsonschema:"minimum=100,maximum=8170"`

	// MaxWarnings is the number of pending warnings retained before new ones are dropped.
	MaxWarnings int `yaml:"max_warnings" json:"max_warnings,omitempty" validate:"gte=1,lte=10000" jsonschema:"minimum=1,maximum=10000"`
}

// Defaults mirror the embedded interpreter's own option defaults.
const (
	DefaultModuleName       = "rgo"
	DefaultLogLevel         = "warn"
	DefaultMaxMemoryBytes   = 64 << 20
	DefaultInitialPages     = 1
	DefaultProtectStackSize = 50000
	DefaultWarningLength    = 1000
	DefaultMaxWarnings      = 50
)

// PageSize is the size of one linear memory page.
const PageSize = 64 * 1024

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		ModuleName:       DefaultModuleName,
		LogLevel:         DefaultLogLevel,
		MaxMemoryBytes:   DefaultMaxMemoryBytes,
		InitialPages:     DefaultInitialPages,
		ProtectStackSize: DefaultProtectStackSize,
		WarningLength:    DefaultWarningLength,
		MaxWarnings:      DefaultMaxWarnings,
	}
}

// MaxPages returns the number of pages needed to hold MaxMemoryBytes.
func (c RuntimeConfig) MaxPages() uint32 {
	pages := (c.MaxMemoryBytes + PageSize - 1) / PageSize
	if pages < int(c.InitialPages) {
		return c.InitialPages
	}
	if pages > 65536 {
		return 65536
	}
	return uint32(pages) //nolint:gosec // G115: bounded above
}

// ConfigOption is a functional option for configuring runtime settings.
type ConfigOption func(*RuntimeConfig)

// WithMaxMemoryBytes sets the live byte limit of the linear memory.
func WithMaxMemoryBytes(n int) ConfigOption {
	return func(c *RuntimeConfig) {
		if n > 0 {
			c.MaxMemoryBytes = n
		}
	}
}

// WithProtectStackSize sets the protection stack depth.
func WithProtectStackSize(n int) ConfigOption {
	return func(c *RuntimeConfig) {
		if n > 0 {
			c.ProtectStackSize = n
		}
	}
}

// WithWarningLength sets the warning message truncation length.
func WithWarningLength(n int) ConfigOption {
	return func(c *RuntimeConfig) {
		if n > 0 {
			c.WarningLength = n
		}
	}
}

// WithMaxWarnings sets how many pending warnings are kept.
func WithMaxWarnings(n int) ConfigOption {
	return func(c *RuntimeConfig) {
		if n > 0 {
			c.MaxWarnings = n
		}
	}
}

// WithModuleName sets the host module name.
func WithModuleName(name string) ConfigOption {
	return func(c *RuntimeConfig) {
		if name != "" {
			c.ModuleName = name
		}
	}
}

// WithLogLevel sets the logging verbosity level.
func WithLogLevel(level string) ConfigOption {
	return func(c *RuntimeConfig) {
		c.LogLevel = level
	}
}

// NewRuntimeConfig creates a new RuntimeConfig with the given options.
func NewRuntimeConfig(opts ...ConfigOption) RuntimeConfig {
	cfg := DefaultRuntimeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
