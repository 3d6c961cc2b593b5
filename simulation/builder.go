package simulation

import (
	"log/slog"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/hierarchy"
	"github.com/sarchlab/cachesim/mem/power"
	"github.com/sarchlab/cachesim/sim/timing"
	"github.com/sarchlab/cachesim/workload"
)

// Config is the configuration of the simulated hierarchy.
type Config = hierarchy.Config

// DefaultConfig returns the default L1 with a derived L2.
func DefaultConfig() Config {
	return hierarchy.DefaultConfig()
}

// FromL1 creates a configuration from a single level, deriving L2.
func FromL1(l1 cache.Config) Config {
	return hierarchy.FromL1(l1)
}

// Builder can build simulators.
type Builder struct {
	config    Config
	scheduler timing.Scheduler
	logger    *slog.Logger
	model     power.Model
}

// MakeBuilder creates a builder with the default configuration and a wall
// clock scheduler.
func MakeBuilder() Builder {
	return Builder{
		config: DefaultConfig(),
		model:  power.DefaultModel(),
	}
}

// WithConfig sets the initial hierarchy configuration.
func (b Builder) WithConfig(config Config) Builder {
	b.config = config
	return b
}

// WithScheduler sets the scheduler that drives playback.
func (b Builder) WithScheduler(scheduler timing.Scheduler) Builder {
	b.scheduler = scheduler
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// WithPowerModel replaces the energy constants.
func (b Builder) WithPowerModel(model power.Model) Builder {
	b.model = model
	return b
}

// Build creates a simulator with an empty program. It panics if the
// configuration is invalid.
func (b Builder) Build() *Simulator {
	if err := b.config.Validate(); err != nil {
		panic(err)
	}

	s := &Simulator{
		config:    b.config,
		scheduler: b.scheduler,
		logger:    b.logger,
		model:     b.model,
		state:     workload.NewExecutionState(),
		viewIndex: Live,
	}

	if s.scheduler == nil {
		s.scheduler = timing.NewWallClockScheduler()
	}

	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	s.install(s.buildHierarchy(s.config))

	return s
}
