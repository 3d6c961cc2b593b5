package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache/internal/classify"
	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
)

// Builder can build cache levels.
type Builder struct {
	config Config
	seed   int64
}

// MakeBuilder creates a new builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		config: DefaultConfig(),
		seed:   1,
	}
}

// WithConfig sets the geometry and power parameters of the level.
func (b Builder) WithConfig(config Config) Builder {
	b.config = config
	return b
}

// WithSeed sets the seed of the random replacement policy.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// Build builds a cache level. It panics if the configuration is invalid;
// call Config.Validate first to get an error instead.
func (b Builder) Build(name string) *Level {
	b.mustBeValid()

	numSets := int(b.config.NumSets())
	numWays := int(b.config.Associativity)

	return &Level{
		name:         name,
		config:       b.config,
		numSets:      b.config.NumSets(),
		tags:         tagging.NewTagArray(numSets, numWays),
		victimFinder: b.createVictimFinder(),
		classifier:   classify.NewClassifier(numSets * numWays),
	}
}

func (b Builder) createVictimFinder() tagging.VictimFinder {
	policy, _ := ParseReplacementPolicy(string(b.config.Policy))

	switch policy {
	case LRU:
		return tagging.NewLRUVictimFinder()
	case FIFO:
		return tagging.NewFIFOVictimFinder()
	case Random:
		return tagging.NewRandomVictimFinder(b.seed)
	default:
		panic("unknown replace strategy: " + string(b.config.Policy))
	}
}

func (b Builder) mustBeValid() {
	if err := b.config.Validate(); err != nil {
		panic(fmt.Sprintf("cache must have a valid geometry: %v", err))
	}
}
