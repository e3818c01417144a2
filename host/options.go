package host

import (
	"log/slog"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/ports"
	"github.com/reglet-dev/sexpbridge/hostfuncs"
)

// ArenaModule is the name of the module exporting the native linear memory.
const ArenaModule = "rgo_arena"

type executorConfig struct {
	runtime  entities.RuntimeConfig
	printer  ports.Printer
	logger   *slog.Logger
	hostOpts []hostfuncs.RegistryOption
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		runtime: entities.DefaultRuntimeConfig(),
	}
}

// Option defines a functional option for configuring the Executor.
type Option func(*executorConfig)

// WithConfig sets the runtime configuration.
func WithConfig(cfg entities.RuntimeConfig) Option {
	return func(c *executorConfig) {
		c.runtime = cfg
	}
}

// WithPrinter sets the host print routine behind print_sexp.
func WithPrinter(p ports.Printer) Option {
	return func(c *executorConfig) {
		c.printer = p
	}
}

// WithLogger sets the logger. By default a text logger on stderr at the
// configured log level is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *executorConfig) {
		c.logger = logger
	}
}

// WithHostFunctions adds handlers or middleware to the host function
// registry, after the built-in ones.
func WithHostFunctions(opts ...hostfuncs.RegistryOption) Option {
	return func(c *executorConfig) {
		c.hostOpts = append(c.hostOpts, opts...)
	}
}
