package hierarchy

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache"
)

// DefaultMaxAddress is the highest byte address of a 32-bit address space.
const DefaultMaxAddress = 0xFFFF_FFFF

// Config describes the whole hierarchy.
type Config struct {
	L1 cache.Config `json:"l1" yaml:"l1"`

	// L2 is derived from L1 when nil.
	L2 *cache.Config `json:"l2,omitempty" yaml:"l2,omitempty"`

	// Seed seeds the random replacement policy of every level.
	Seed int64 `json:"seed" yaml:"seed"`

	// MaxAddress is the highest address a program may touch. Zero means
	// DefaultMaxAddress.
	MaxAddress uint64 `json:"maxAddress,omitempty" yaml:"max_address,omitempty"`
}

// DefaultConfig returns the default L1 with a derived L2.
func DefaultConfig() Config {
	return Config{
		L1:   cache.DefaultConfig(),
		Seed: 1,
	}
}

// FromL1 creates a hierarchy configuration from a single level, which is how
// the external configuration object describes the cache.
func FromL1(l1 cache.Config) Config {
	c := DefaultConfig()
	c.L1 = l1

	return c
}

// DeriveL2 returns the L2 used when none is given: four times the capacity,
// twice the ways (at most 16), and everything else taken from L1.
func DeriveL2(l1 cache.Config) cache.Config {
	l2 := l1
	l2.SizeBytes = l1.SizeBytes * 4
	l2.Associativity = min(l1.Associativity*2, 16)

	if l2.Associativity < l1.Associativity || l2.Validate() != nil {
		l2.Associativity = l1.Associativity
	}

	return l2
}

// L2Config returns the explicit L2 configuration or the derived one.
func (c Config) L2Config() cache.Config {
	if c.L2 != nil {
		return *c.L2
	}

	return DeriveL2(c.L1)
}

// AddressLimit returns the highest valid byte address.
func (c Config) AddressLimit() uint64 {
	if c.MaxAddress == 0 {
		return DefaultMaxAddress
	}

	return c.MaxAddress
}

// Validate checks both levels and the address space. The returned error is a *cache.ConfigError
// whose field is prefixed with the level name.
func (c Config) Validate() error {
	if c.MaxAddress >= 1<<48 {
		return &cache.ConfigError{
			Field:  "maxAddress",
			Reason: "must be below 2^48",
		}
	}

	if err := validateLevel("l1", c.L1); err != nil {
		return err
	}

	l2 := c.L2Config()
	if err := validateLevel("l2", l2); err != nil {
		return err
	}

	if l2.BlockSizeBytes < c.L1.BlockSizeBytes {
		return &cache.ConfigError{
			Field:  "l2.blockSize",
			Reason: "must not be smaller than the L1 block size",
		}
	}

	return nil
}

func validateLevel(name string, c cache.Config) error {
	err := c.Validate()
	if err == nil {
		return nil
	}

	if configErr, ok := err.(*cache.ConfigError); ok {
		return &cache.ConfigError{
			Field:  fmt.Sprintf("%s.%s", name, configErr.Field),
			Reason: configErr.Reason,
		}
	}

	return err
}
