package tagging

import "math/rand"

// A VictimFinder decides which block should be evicted.
type VictimFinder interface {
	FindVictim(set *Set) Block
}

// firstInvalid returns the lowest-indexed invalid block of the set.
func firstInvalid(set *Set) (Block, bool) {
	for _, block := range set.Blocks {
		if !block.IsValid {
			return block, true
		}
	}

	return Block{}, false
}

// LRUVictimFinder evicts the least recently used block.
type LRUVictimFinder struct{}

// NewLRUVictimFinder returns a newly constructed lru evictor.
func NewLRUVictimFinder() *LRUVictimFinder {
	return &LRUVictimFinder{}
}

// FindVictim returns an invalid block if there is one, otherwise the block
// with the smallest last-used time. Ties go to the lowest way.
func (e *LRUVictimFinder) FindVictim(set *Set) Block {
	if block, ok := firstInvalid(set); ok {
		return block
	}

	victim := set.Blocks[0]
	for _, block := range set.Blocks[1:] {
		if block.LastUsed < victim.LastUsed {
			victim = block
		}
	}

	return victim
}

// FIFOVictimFinder evicts the block that was installed first, regardless of
// how recently it was used.
type FIFOVictimFinder struct{}

// NewFIFOVictimFinder returns a newly constructed fifo evictor.
func NewFIFOVictimFinder() *FIFOVictimFinder {
	return &FIFOVictimFinder{}
}

// FindVictim returns an invalid block if there is one, otherwise the block
// with the smallest insertion order. Ties go to the lowest way.
func (e *FIFOVictimFinder) FindVictim(set *Set) Block {
	if block, ok := firstInvalid(set); ok {
		return block
	}

	victim := set.Blocks[0]
	for _, block := range set.Blocks[1:] {
		if block.InsertionOrder < victim.InsertionOrder {
			victim = block
		}
	}

	return victim
}

// RandomVictimFinder evicts a uniformly chosen block. The random source is
// injected so that runs can be replayed.
type RandomVictimFinder struct {
	rng *rand.Rand
}

// NewRandomVictimFinder returns a random evictor seeded with seed.
func NewRandomVictimFinder(seed int64) *RandomVictimFinder {
	return &RandomVictimFinder{rng: rand.New(rand.NewSource(seed))}
}

// FindVictim returns an invalid block if there is one, otherwise a random
// block of the set.
func (e *RandomVictimFinder) FindVictim(set *Set) Block {
	if block, ok := firstInvalid(set); ok {
		return block
	}

	return set.Blocks[e.rng.Intn(len(set.Blocks))]
}
