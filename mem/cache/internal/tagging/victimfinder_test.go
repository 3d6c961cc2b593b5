package tagging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func fullSet(insertion, lastUsed []uint64) *Set {
	set := &Set{}
	for i := range insertion {
		set.Blocks = append(set.Blocks, Block{
			WayID:          i,
			IsValid:        true,
			Tag:            uint64(i),
			InsertionOrder: insertion[i],
			LastUsed:       lastUsed[i],
		})
	}

	return set
}

var _ = Describe("VictimFinders", func() {
	It("should prefer the first invalid block", func() {
		set := fullSet([]uint64{1, 2, 3}, []uint64{1, 2, 3})
		set.Blocks[1].IsValid = false
		set.Blocks[2].IsValid = false

		Expect(NewLRUVictimFinder().FindVictim(set).WayID).To(Equal(1))
		Expect(NewFIFOVictimFinder().FindVictim(set).WayID).To(Equal(1))
		Expect(NewRandomVictimFinder(1).FindVictim(set).WayID).To(Equal(1))
	})

	It("should evict the least recently used block under LRU", func() {
		set := fullSet([]uint64{1, 2, 3}, []uint64{9, 4, 7})

		Expect(NewLRUVictimFinder().FindVictim(set).WayID).To(Equal(1))
	})

	It("should evict the oldest inserted block under FIFO", func() {
		set := fullSet([]uint64{1, 2, 3}, []uint64{9, 4, 7})

		Expect(NewFIFOVictimFinder().FindVictim(set).WayID).To(Equal(0))
	})

	It("should break ties with the lowest way", func() {
		set := fullSet([]uint64{5, 5, 5}, []uint64{5, 5, 5})

		Expect(NewLRUVictimFinder().FindVictim(set).WayID).To(Equal(0))
		Expect(NewFIFOVictimFinder().FindVictim(set).WayID).To(Equal(0))
	})

	It("should repeat the same random choices for the same seed", func() {
		set := fullSet(
			[]uint64{1, 2, 3, 4, 5, 6, 7, 8},
			[]uint64{1, 2, 3, 4, 5, 6, 7, 8},
		)

		choices := func(seed int64) []int {
			finder := NewRandomVictimFinder(seed)
			ways := []int{}
			for i := 0; i < 32; i++ {
				ways = append(ways, finder.FindVictim(set).WayID)
			}

			return ways
		}

		first := choices(42)
		Expect(choices(42)).To(Equal(first))
		for _, way := range first {
			Expect(way).To(BeNumerically(">=", 0))
			Expect(way).To(BeNumerically("<", 8))
		}
	})
})
