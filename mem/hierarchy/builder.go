package hierarchy

import (
	"log/slog"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/mem"
	"github.com/sarchlab/cachesim/mem/power"
)

// Builder can build hierarchies.
type Builder struct {
	config Config
	model  power.Model
	logger *slog.Logger
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		config: DefaultConfig(),
		model:  power.DefaultModel(),
	}
}

// WithConfig sets the configuration of both levels.
func (b Builder) WithConfig(config Config) Builder {
	b.config = config
	return b
}

// WithPowerModel replaces the energy constants.
func (b Builder) WithPowerModel(model power.Model) Builder {
	b.model = model
	return b
}

// WithLogger sets the logger used for eviction details.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates the hierarchy. It panics if the configuration is invalid.
// Each level gets its own random source derived from the seed, so L1 and L2
// evictions do not depend on each other.
func (b Builder) Build() *Hierarchy {
	if err := b.config.Validate(); err != nil {
		panic(err)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	l1 := cache.MakeBuilder().
		WithConfig(b.config.L1).
		WithSeed(b.config.Seed).
		Build("L1")
	l2 := cache.MakeBuilder().
		WithConfig(b.config.L2Config()).
		WithSeed(b.config.Seed + 1).
		Build("L2")

	return &Hierarchy{
		config:  b.config,
		levels:  []*cache.Level{l1, l2},
		storage: mem.NewStorage(b.config.AddressLimit() + 1),
		model:   b.model,
		logger:  logger,
	}
}
