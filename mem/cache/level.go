// Package cache models one level of a set-associative cache. A level only
// tracks tags and replacement state; it holds no data.
package cache

import (
	"github.com/sarchlab/cachesim/mem/cache/internal/classify"
	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
	"github.com/sarchlab/cachesim/mem/mem"
)

// MissType is the three-C cause of a miss.
type MissType = classify.MissType

// Miss types. MissNone is reported for hits.
const (
	MissNone   = classify.None
	Compulsory = classify.Compulsory
	Capacity   = classify.Capacity
	Conflict   = classify.Conflict
)

// Eviction describes a valid block that was replaced to make room.
type Eviction struct {
	Tag          uint64 `json:"tag"`
	BlockAddress uint64 `json:"blockAddress"`
	Dirty        bool   `json:"dirty"`
}

// AccessResult is the outcome of one access at one level.
type AccessResult struct {
	Level        string    `json:"level"`
	Hit          bool      `json:"hit"`
	SetIndex     int       `json:"setIndex"`
	WayIndex     int       `json:"wayIndex"`
	Tag          uint64    `json:"tag"`
	BlockAddress uint64    `json:"blockAddress"`
	MissType     MissType  `json:"missType"`
	Evicted      *Eviction `json:"evicted,omitempty"`
}

// Stats are the aggregate counters of a level.
type Stats struct {
	Accesses         uint64 `json:"accesses"`
	Hits             uint64 `json:"hits"`
	Misses           uint64 `json:"misses"`
	CompulsoryMisses uint64 `json:"compulsoryMisses"`
	CapacityMisses   uint64 `json:"capacityMisses"`
	ConflictMisses   uint64 `json:"conflictMisses"`
	Evictions        uint64 `json:"evictions"`
	Writebacks       uint64 `json:"writebacks"`
}

// HitRate returns hits over accesses, or zero before the first access.
func (s Stats) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Accesses)
}

// BlockState is the visible state of one way, as shown on a cache grid.
type BlockState struct {
	Valid          bool   `json:"valid"`
	Tag            uint64 `json:"tag"`
	Dirty          bool   `json:"dirty"`
	InsertionOrder uint64 `json:"insertionOrder"`
	LastUsed       uint64 `json:"lastUsed"`
}

// Grid is a copy of all the blocks of a level, indexed by set then way.
type Grid struct {
	Level         string         `json:"level"`
	NumSets       int            `json:"numSets"`
	Associativity int            `json:"associativity"`
	Sets          [][]BlockState `json:"sets"`
}

// A Level is one set-associative cache.
type Level struct {
	name         string
	config       Config
	numSets      uint64
	tags         tagging.TagArray
	victimFinder tagging.VictimFinder
	classifier   *classify.Classifier

	clock uint64
	stats Stats
}

// Name returns the name of the level.
func (l *Level) Name() string {
	return l.name
}

// Config returns the configuration the level was built with.
func (l *Level) Config() Config {
	return l.config
}

// Decode splits an address into the block address, set index, and tag.
func (l *Level) Decode(address uint64) (blockAddr uint64, setIndex int, tag uint64) {
	blockAddr = address / l.config.BlockSizeBytes
	setIndex = int(blockAddr % l.numSets)
	tag = blockAddr / l.numSets

	return blockAddr, setIndex, tag
}

// Access looks up the address, installs the block on a miss, and updates the
// replacement and classification state.
func (l *Level) Access(address uint64, kind mem.AccessKind) AccessResult {
	l.clock++
	l.stats.Accesses++

	blockAddr, setIndex, tag := l.Decode(address)
	result := AccessResult{
		Level:        l.name,
		SetIndex:     setIndex,
		Tag:          tag,
		BlockAddress: blockAddr,
	}

	block, hit := l.tags.Lookup(setIndex, tag)
	if hit {
		l.tags.Visit(block, l.clock)
	} else {
		block = l.replace(setIndex, &result)
		block = l.tags.Install(block, tag, l.clock)
	}

	if kind == mem.Store {
		l.tags.MarkDirty(block)
	}

	result.Hit = hit
	result.WayIndex = block.WayID
	result.MissType = l.classifier.Observe(blockAddr, hit)
	l.count(result)

	return result
}

func (l *Level) replace(setIndex int, result *AccessResult) tagging.Block {
	victim := l.victimFinder.FindVictim(l.tags.GetSet(setIndex))
	if !victim.IsValid {
		return victim
	}

	result.Evicted = &Eviction{
		Tag:          victim.Tag,
		BlockAddress: victim.Tag*l.numSets + uint64(victim.SetID),
		Dirty:        victim.IsDirty,
	}

	return victim
}

func (l *Level) count(result AccessResult) {
	if result.Hit {
		l.stats.Hits++
		return
	}

	l.stats.Misses++

	switch result.MissType {
	case Compulsory:
		l.stats.CompulsoryMisses++
	case Capacity:
		l.stats.CapacityMisses++
	case Conflict:
		l.stats.ConflictMisses++
	}

	if result.Evicted != nil {
		l.stats.Evictions++
		if result.Evicted.Dirty {
			l.stats.Writebacks++
		}
	}
}

// Contains tells if the block holding the address is currently cached.
func (l *Level) Contains(address uint64) bool {
	_, setIndex, tag := l.Decode(address)
	_, ok := l.tags.Lookup(setIndex, tag)

	return ok
}

// Stats returns the counters accumulated since the last reset.
func (l *Level) Stats() Stats {
	return l.stats
}

// Grid returns a copy of the block states.
func (l *Level) Grid() Grid {
	sets := l.tags.Snapshot()
	grid := Grid{
		Level:         l.name,
		NumSets:       l.tags.NumSets(),
		Associativity: l.tags.NumWays(),
		Sets:          make([][]BlockState, len(sets)),
	}

	for i, set := range sets {
		grid.Sets[i] = make([]BlockState, len(set.Blocks))
		for j, b := range set.Blocks {
			grid.Sets[i][j] = BlockState{
				Valid:          b.IsValid,
				Tag:            b.Tag,
				Dirty:          b.IsDirty,
				InsertionOrder: b.InsertionOrder,
				LastUsed:       b.LastUsed,
			}
		}
	}

	return grid
}

// Reset invalidates every block and clears the counters and classifier.
// The random replacement source is not rewound; build a new level for a
// reproducible restart.
func (l *Level) Reset() {
	l.tags.Reset()
	l.classifier.Reset()
	l.clock = 0
	l.stats = Stats{}
}
