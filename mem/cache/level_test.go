package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/mem/mem"
)

func buildLevel(size, block, ways uint64, policy ReplacementPolicy) *Level {
	c := DefaultConfig()
	c.SizeBytes = size
	c.BlockSizeBytes = block
	c.Associativity = ways
	c.Policy = policy

	return MakeBuilder().WithConfig(c).WithSeed(7).Build("L1")
}

func loadAll(l *Level, addrs ...uint64) []AccessResult {
	results := make([]AccessResult, 0, len(addrs))
	for _, addr := range addrs {
		results = append(results, l.Access(addr, mem.Load))
	}

	return results
}

var _ = Describe("Level", func() {
	It("should decode addresses into block, set, and tag", func() {
		l := buildLevel(1024, 32, 1, LRU)

		blockAddr, set, tag := l.Decode(0x400)

		Expect(blockAddr).To(Equal(uint64(32)))
		Expect(set).To(Equal(0))
		Expect(tag).To(Equal(uint64(1)))
	})

	It("should classify the direct-mapped ping-pong as a conflict", func() {
		l := buildLevel(1024, 32, 1, LRU)

		r := loadAll(l, 0x000, 0x400, 0x000)

		Expect(r[0].Hit).To(BeFalse())
		Expect(r[0].MissType).To(Equal(Compulsory))
		Expect(r[0].SetIndex).To(Equal(0))

		Expect(r[1].Hit).To(BeFalse())
		Expect(r[1].MissType).To(Equal(Compulsory))
		Expect(r[1].SetIndex).To(Equal(0))
		Expect(r[1].Evicted).NotTo(BeNil())
		Expect(r[1].Evicted.BlockAddress).To(Equal(uint64(0)))

		Expect(r[2].Hit).To(BeFalse())
		Expect(r[2].MissType).To(Equal(Conflict))
	})

	It("should classify a working set larger than the cache as capacity", func() {
		l := buildLevel(64, 32, 2, LRU)

		r := loadAll(l, 0x00, 0x20, 0x40, 0x00)

		Expect(r[3].MissType).To(Equal(Capacity))
	})

	It("should hit on addresses in the same block", func() {
		l := buildLevel(1024, 16, 1, LRU)

		r := loadAll(l, 0x100, 0x104, 0x108, 0x10C)

		Expect(r[0].Hit).To(BeFalse())
		for _, res := range r[1:] {
			Expect(res.Hit).To(BeTrue())
			Expect(res.MissType).To(Equal(MissNone))
		}
	})

	It("should let FIFO evict a recently used block that LRU keeps", func() {
		trace := []uint64{0x00, 0x10, 0x00, 0x20, 0x00}

		lru := loadAll(buildLevel(32, 16, 2, LRU), trace...)
		fifo := loadAll(buildLevel(32, 16, 2, FIFO), trace...)

		Expect(lru[4].Hit).To(BeTrue())
		Expect(fifo[4].Hit).To(BeFalse())
		Expect(lru[3].Evicted.BlockAddress).To(Equal(uint64(1)))
		Expect(fifo[3].Evicted.BlockAddress).To(Equal(uint64(0)))
	})

	It("should fill invalid ways before evicting", func() {
		l := buildLevel(64, 16, 4, FIFO)

		r := loadAll(l, 0x00, 0x10, 0x20, 0x30)

		for i, res := range r {
			Expect(res.WayIndex).To(Equal(i))
			Expect(res.Evicted).To(BeNil())
		}
	})

	It("should replay random evictions for the same seed", func() {
		trace := []uint64{}
		for i := uint64(0); i < 64; i++ {
			trace = append(trace, (i*0x130)%0x800)
		}

		first := loadAll(buildLevel(128, 16, 8, Random), trace...)
		second := loadAll(buildLevel(128, 16, 8, Random), trace...)

		Expect(second).To(Equal(first))
	})

	It("should mark stores dirty and count dirty evictions", func() {
		l := buildLevel(1024, 32, 1, LRU)

		l.Access(0x000, mem.Store)
		r := l.Access(0x400, mem.Load)

		Expect(r.Evicted.Dirty).To(BeTrue())
		Expect(l.Stats().Writebacks).To(Equal(uint64(1)))
		Expect(l.Grid().Sets[0][0].Dirty).To(BeFalse())
	})

	It("should keep hits plus misses equal to accesses", func() {
		l := buildLevel(256, 16, 2, LRU)
		for i := uint64(0); i < 200; i++ {
			l.Access((i*i*0x24)%0x1000, mem.Load)
		}

		s := l.Stats()
		Expect(s.Hits + s.Misses).To(Equal(s.Accesses))
		Expect(s.CompulsoryMisses + s.CapacityMisses + s.ConflictMisses).
			To(Equal(s.Misses))
	})

	It("should expose the grid and reset it", func() {
		l := buildLevel(1024, 32, 1, LRU)
		l.Access(0x420, mem.Load)

		grid := l.Grid()
		Expect(grid.NumSets).To(Equal(32))
		Expect(grid.Associativity).To(Equal(1))
		Expect(grid.Sets[1][0].Valid).To(BeTrue())
		Expect(grid.Sets[1][0].Tag).To(Equal(uint64(1)))
		Expect(l.Contains(0x43F)).To(BeTrue())

		l.Reset()

		Expect(l.Contains(0x420)).To(BeFalse())
		Expect(l.Stats()).To(BeZero())
	})
})
