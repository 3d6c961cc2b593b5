package cache

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// ReplacementPolicy names how a set chooses the block to evict.
type ReplacementPolicy string

// Supported replacement policies.
const (
	LRU    ReplacementPolicy = "LRU"
	FIFO   ReplacementPolicy = "FIFO"
	Random ReplacementPolicy = "RANDOM"
)

// ParseReplacementPolicy accepts policy names in any case.
func ParseReplacementPolicy(s string) (ReplacementPolicy, error) {
	switch p := ReplacementPolicy(strings.ToUpper(strings.TrimSpace(s))); p {
	case LRU, FIFO, Random:
		return p, nil
	default:
		return "", fmt.Errorf("unknown replacement policy %q", s)
	}
}

// Config describes the geometry and power parameters of one cache level.
type Config struct {
	SizeBytes      uint64            `json:"cacheSize" yaml:"cache_size"`
	BlockSizeBytes uint64            `json:"blockSize" yaml:"block_size"`
	Associativity  uint64            `json:"associativity" yaml:"associativity"`
	Policy         ReplacementPolicy `json:"replacementPolicy" yaml:"replacement_policy"`

	// StaticPower is the leakage power in mW per KB of capacity.
	StaticPower float64 `json:"staticPower" yaml:"static_power"`

	// Voltage is the supply voltage in volts.
	Voltage float64 `json:"voltage" yaml:"voltage"`
}

// DefaultConfig returns a 1 KB direct-mapped cache with 32 B blocks.
func DefaultConfig() Config {
	return Config{
		SizeBytes:      1024,
		BlockSizeBytes: 32,
		Associativity:  1,
		Policy:         LRU,
		StaticPower:    50,
		Voltage:        1.0,
	}
}

// A ConfigError reports an invalid cache configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid cache config: %s: %s", e.Field, e.Reason)
}

// NumSets returns the number of sets. It is only meaningful for valid
// configurations.
func (c Config) NumSets() uint64 {
	setSize := c.BlockSizeBytes * c.Associativity
	if setSize == 0 {
		return 0
	}

	return c.SizeBytes / setSize
}

// NumBlocks returns the number of blocks the cache can hold.
func (c Config) NumBlocks() uint64 {
	if c.BlockSizeBytes == 0 {
		return 0
	}

	return c.SizeBytes / c.BlockSizeBytes
}

// MaxBlocks is the largest number of blocks a level may hold.
const MaxBlocks = 1 << 20

// Validate checks that the configuration describes a buildable cache.
func (c Config) Validate() error {
	switch {
	case c.SizeBytes == 0:
		return &ConfigError{Field: "cacheSize", Reason: "must be positive"}
	case c.BlockSizeBytes == 0:
		return &ConfigError{Field: "blockSize", Reason: "must be positive"}
	case c.Associativity == 0:
		return &ConfigError{Field: "associativity", Reason: "must be positive"}
	case bits.OnesCount64(c.BlockSizeBytes) != 1:
		return &ConfigError{
			Field:  "blockSize",
			Reason: fmt.Sprintf("%d is not a power of two", c.BlockSizeBytes),
		}
	}

	setSize := c.BlockSizeBytes * c.Associativity
	if setSize/c.Associativity != c.BlockSizeBytes || c.SizeBytes%setSize != 0 {
		return &ConfigError{
			Field: "cacheSize",
			Reason: fmt.Sprintf(
				"%d is not divisible by blockSize*associativity (%d*%d)",
				c.SizeBytes, c.BlockSizeBytes, c.Associativity),
		}
	}

	if n := c.NumBlocks(); n > MaxBlocks {
		return &ConfigError{
			Field: "cacheSize",
			Reason: fmt.Sprintf("%d blocks exceed the limit of %d",
				n, MaxBlocks),
		}
	}

	if numSets := c.NumSets(); bits.OnesCount64(numSets) != 1 {
		return &ConfigError{
			Field:  "cacheSize",
			Reason: fmt.Sprintf("number of sets %d is not a power of two", numSets),
		}
	}

	if _, err := ParseReplacementPolicy(string(c.Policy)); err != nil {
		return &ConfigError{Field: "replacementPolicy", Reason: err.Error()}
	}

	if !(c.Voltage > 0) || math.IsInf(c.Voltage, 0) {
		return &ConfigError{
			Field:  "voltage",
			Reason: "must be a finite positive number",
		}
	}

	if !(c.StaticPower >= 0) || math.IsInf(c.StaticPower, 0) {
		return &ConfigError{
			Field:  "staticPower",
			Reason: "must be a finite non-negative number",
		}
	}

	return nil
}
