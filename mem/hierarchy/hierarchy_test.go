package hierarchy

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/mem"
	"github.com/sarchlab/cachesim/mem/power"
)

var _ = Describe("Hierarchy", func() {
	var h *Hierarchy

	BeforeEach(func() {
		h = MakeBuilder().WithConfig(DefaultConfig()).Build()
	})

	It("should serve a cold load from memory", func() {
		res, err := h.Access(mem.LoadReq(0x100))

		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsHit).To(BeFalse())
		Expect(res.L2Hit).To(BeFalse())
		Expect(res.ServedBy).To(Equal(power.Memory))
		Expect(res.Levels).To(HaveLen(2))
		Expect(res.MissTypes()).To(Equal([]cache.MissType{
			cache.Compulsory, cache.Compulsory,
		}))
		Expect(res.FinalValue).To(Equal(int64(0)))
	})

	It("should hit in L1 the second time", func() {
		_, _ = h.Access(mem.LoadReq(0x100))
		res, err := h.Access(mem.LoadReq(0x104))

		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsHit).To(BeTrue())
		Expect(res.ServedBy).To(Equal(power.L1))
		Expect(res.Levels).To(HaveLen(1))
	})

	It("should serve an L1 conflict victim from L2", func() {
		_, _ = h.Access(mem.LoadReq(0x000))
		_, _ = h.Access(mem.LoadReq(0x400))
		res, err := h.Access(mem.LoadReq(0x000))

		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsHit).To(BeFalse())
		Expect(res.L2Hit).To(BeTrue())
		Expect(res.ServedBy).To(Equal(power.L2))
		Expect(res.Levels[0].MissType).To(Equal(cache.Conflict))
	})

	It("should charge more energy the deeper the access goes", func() {
		l2Hit := func() power.Energy {
			_, _ = h.Access(mem.LoadReq(0x000))
			_, _ = h.Access(mem.LoadReq(0x400))
			res, _ := h.Access(mem.LoadReq(0x000))

			return res.Energy
		}()

		h = MakeBuilder().Build()
		cold, _ := h.Access(mem.LoadReq(0x000))
		warm, _ := h.Access(mem.LoadReq(0x000))

		Expect(warm.Energy.Total()).To(BeNumerically("<", l2Hit.Total()))
		Expect(l2Hit.Total()).To(BeNumerically("<", cold.Energy.Total()))
	})

	It("should compute the L1 hit energy", func() {
		_, _ = h.Access(mem.LoadReq(0x000))
		res, _ := h.Access(mem.LoadReq(0x000))

		Expect(res.Energy.Dynamic).To(BeNumerically("~", 1.0, 1e-9))
		Expect(res.Energy.Static).To(BeNumerically("~", 50.0, 1e-9))
	})

	It("should store and load values", func() {
		res, err := h.Access(mem.StoreReq(0x200, -7))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.FinalValue).To(Equal(int64(-7)))

		res, err = h.Access(mem.LoadReq(0x200))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsHit).To(BeTrue())
		Expect(res.FinalValue).To(Equal(int64(-7)))
	})

	It("should write back a dirty block when it is evicted", func() {
		_, _ = h.Access(mem.StoreReq(0x000, 1))
		res, err := h.Access(mem.LoadReq(0x400))

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Writebacks).To(HaveLen(1))
		Expect(res.Writebacks[0].BlockAddress).To(Equal(uint64(0)))
		Expect(h.Stats()[0].Writebacks).To(Equal(uint64(1)))
	})

	It("should reject negative addresses", func() {
		_, err := h.Access(mem.LoadReq(-4))

		var accessErr *AccessError
		Expect(err).To(BeAssignableToTypeOf(accessErr))
		Expect(h.Stats()[0].Accesses).To(BeZero())
	})

	It("should reject words that cross the end of the address space", func() {
		c := DefaultConfig()
		c.MaxAddress = 0xFFF
		h = MakeBuilder().WithConfig(c).Build()

		_, err := h.Access(mem.LoadReq(0xFFE))
		Expect(err).To(MatchError(ContainSubstring("beyond the address space")))

		_, err = h.Access(mem.LoadReq(0xFFC))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should send every L1 miss to L2", func() {
		for _, addr := range []int64{0x0, 0x400, 0x0, 0x20, 0x800, 0x24, 0x0} {
			_, err := h.Access(mem.LoadReq(addr))
			Expect(err).NotTo(HaveOccurred())
		}

		stats := h.Stats()
		Expect(stats[0].Hits + stats[0].Misses).To(Equal(stats[0].Accesses))
		Expect(stats[1].Accesses).To(Equal(stats[0].Misses))
		Expect(stats[0].CompulsoryMisses + stats[0].CapacityMisses +
			stats[0].ConflictMisses).To(Equal(stats[0].Misses))
	})

	It("should find levels by name", func() {
		Expect(h.Level("L2")).NotTo(BeNil())
		Expect(h.Level("L3")).To(BeNil())
		Expect(h.Grids()[1].NumSets).To(Equal(64))
	})

	It("should panic on an invalid configuration", func() {
		c := DefaultConfig()
		c.L1.BlockSizeBytes = 0

		Expect(func() { MakeBuilder().WithConfig(c).Build() }).To(Panic())
	})
})
