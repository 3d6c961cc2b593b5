// Package classify labels cache misses with the three-C model.
package classify

import "github.com/sarchlab/cachesim/mem/cache/internal/tagging"

// MissType is the cause of a cache miss.
type MissType int

// Miss types. None is used for hits.
const (
	None MissType = iota
	Compulsory
	Capacity
	Conflict
)

func (t MissType) String() string {
	switch t {
	case Compulsory:
		return "Compulsory"
	case Capacity:
		return "Capacity"
	case Conflict:
		return "Conflict"
	default:
		return "None"
	}
}

// A Classifier observes every access of one cache level. It keeps a registry
// of the blocks the level has ever seen and a fully-associative LRU shadow
// cache with the same number of blocks as the level.
type Classifier struct {
	seen   map[uint64]struct{}
	shadow tagging.TagArray
	lru    *tagging.LRUVictimFinder
	clock  uint64
}

// NewClassifier creates a classifier for a level that can hold numBlocks
// blocks.
func NewClassifier(numBlocks int) *Classifier {
	c := &Classifier{
		shadow: tagging.NewTagArray(1, numBlocks),
		lru:    tagging.NewLRUVictimFinder(),
	}

	c.Reset()

	return c
}

// Observe records an access to the block with the given block address and
// returns what kind of miss it is if the real level missed. For hits it
// returns None. The registry and shadow are updated in both cases.
func (c *Classifier) Observe(blockAddr uint64, levelHit bool) MissType {
	_, seenBefore := c.seen[blockAddr]
	shadowHit := c.touchShadow(blockAddr)

	c.seen[blockAddr] = struct{}{}

	switch {
	case levelHit:
		return None
	case !seenBefore:
		return Compulsory
	case !shadowHit:
		return Capacity
	default:
		return Conflict
	}
}

func (c *Classifier) touchShadow(blockAddr uint64) bool {
	c.clock++

	if block, ok := c.shadow.Lookup(0, blockAddr); ok {
		c.shadow.Visit(block, c.clock)
		return true
	}

	victim := c.lru.FindVictim(c.shadow.GetSet(0))
	c.shadow.Install(victim, blockAddr, c.clock)

	return false
}

// Reset forgets every access.
func (c *Classifier) Reset() {
	c.seen = make(map[uint64]struct{})
	c.shadow.Reset()
	c.clock = 0
}

// MarshalText writes the miss type by name.
func (t MissType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
