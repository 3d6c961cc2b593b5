// Package tagging keeps the tag state of a set-associative cache.
package tagging

// A Block of a cache is the information that is associated with a cache line.
type Block struct {
	SetID          int
	WayID          int
	Tag            uint64
	IsValid        bool
	IsDirty        bool
	InsertionOrder uint64
	LastUsed       uint64
}

// A Set is a list of blocks where a certain piece of memory can be stored at.
type Set struct {
	Blocks []Block
}

// TagArray holds the blocks of all the sets of a cache.
type TagArray interface {
	// Lookup finds the valid block in the set that holds the tag.
	Lookup(setID int, tag uint64) (Block, bool)

	// Visit records that the block is used at the given time.
	Visit(block Block, now uint64)

	// Install places a tag into the block's location, marking it valid and
	// clean. Insertion order and last-used time are both set to now.
	Install(block Block, tag uint64, now uint64) Block

	// MarkDirty marks a block as modified.
	MarkDirty(block Block)

	// GetSet returns the set with the given ID.
	GetSet(setID int) *Set

	// NumSets returns the number of sets.
	NumSets() int

	// NumWays returns the number of ways in each set.
	NumWays() int

	// Snapshot returns a deep copy of all the sets.
	Snapshot() []Set

	// Reset marks all the blocks invalid.
	Reset()
}

// NewTagArray creates a tag array with all blocks invalid.
func NewTagArray(numSets, numWays int) TagArray {
	t := &tagArrayImpl{
		numSets: numSets,
		numWays: numWays,
	}

	t.Reset()

	return t
}

type tagArrayImpl struct {
	numSets int
	numWays int
	sets    []Set
}

func (t *tagArrayImpl) NumSets() int {
	return t.numSets
}

func (t *tagArrayImpl) NumWays() int {
	return t.numWays
}

func (t *tagArrayImpl) GetSet(setID int) *Set {
	return &t.sets[setID]
}

func (t *tagArrayImpl) Lookup(setID int, tag uint64) (Block, bool) {
	for _, block := range t.sets[setID].Blocks {
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return Block{}, false
}

func (t *tagArrayImpl) Visit(block Block, now uint64) {
	t.sets[block.SetID].Blocks[block.WayID].LastUsed = now
}

func (t *tagArrayImpl) Install(block Block, tag uint64, now uint64) Block {
	installed := Block{
		SetID:          block.SetID,
		WayID:          block.WayID,
		Tag:            tag,
		IsValid:        true,
		InsertionOrder: now,
		LastUsed:       now,
	}
	t.sets[block.SetID].Blocks[block.WayID] = installed

	return installed
}

func (t *tagArrayImpl) MarkDirty(block Block) {
	t.sets[block.SetID].Blocks[block.WayID].IsDirty = true
}

func (t *tagArrayImpl) Snapshot() []Set {
	sets := make([]Set, len(t.sets))
	for i, set := range t.sets {
		sets[i].Blocks = append([]Block(nil), set.Blocks...)
	}

	return sets
}

func (t *tagArrayImpl) Reset() {
	t.sets = make([]Set, t.numSets)
	for i := 0; i < t.numSets; i++ {
		t.sets[i].Blocks = make([]Block, t.numWays)
		for j := 0; j < t.numWays; j++ {
			t.sets[i].Blocks[j] = Block{SetID: i, WayID: j}
		}
	}
}
