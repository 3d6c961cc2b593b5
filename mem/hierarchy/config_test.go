package hierarchy

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/mem/cache"
)

var _ = Describe("Config", func() {
	It("should derive L2 from L1", func() {
		l2 := DeriveL2(cache.DefaultConfig())

		Expect(l2.SizeBytes).To(Equal(uint64(4096)))
		Expect(l2.BlockSizeBytes).To(Equal(uint64(32)))
		Expect(l2.Associativity).To(Equal(uint64(2)))
		Expect(l2.Policy).To(Equal(cache.LRU))
	})

	It("should cap the derived associativity at 16", func() {
		l1 := cache.DefaultConfig()
		l1.SizeBytes = 32 * 16
		l1.Associativity = 16

		Expect(DeriveL2(l1).Associativity).To(Equal(uint64(16)))
	})

	It("should keep the L1 associativity when doubling is not buildable", func() {
		l1 := cache.DefaultConfig()
		l1.SizeBytes = 32 * 12
		l1.Associativity = 12

		l2 := DeriveL2(l1)

		Expect(l2.Associativity).To(Equal(uint64(12)))
		Expect(l2.Validate()).To(Succeed())
	})

	It("should prefer an explicit L2", func() {
		l2 := cache.DefaultConfig()
		l2.SizeBytes = 8192
		c := DefaultConfig()
		c.L2 = &l2

		Expect(c.L2Config().SizeBytes).To(Equal(uint64(8192)))
	})

	It("should default the address limit", func() {
		Expect(DefaultConfig().AddressLimit()).To(Equal(uint64(DefaultMaxAddress)))
	})

	It("should name the level of an invalid field", func() {
		l2 := cache.DefaultConfig()
		l2.BlockSizeBytes = 24
		c := DefaultConfig()
		c.L2 = &l2

		err := c.Validate()

		var configErr *cache.ConfigError
		Expect(err).To(BeAssignableToTypeOf(configErr))
		Expect(err.(*cache.ConfigError).Field).To(Equal("l2.blockSize"))
	})

	It("should reject an L2 block smaller than the L1 block", func() {
		l2 := cache.DefaultConfig()
		l2.BlockSizeBytes = 16
		c := DefaultConfig()
		c.L2 = &l2

		Expect(c.Validate()).To(MatchError(ContainSubstring("l2.blockSize")))
	})
})
