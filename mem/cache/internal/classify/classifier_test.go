package classify

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Classifier", func() {
	var c *Classifier

	BeforeEach(func() {
		c = NewClassifier(2)
	})

	It("should label first accesses as compulsory", func() {
		Expect(c.Observe(10, false)).To(Equal(Compulsory))
		Expect(c.Observe(11, false)).To(Equal(Compulsory))
		Expect(c.Observe(12, false)).To(Equal(Compulsory))
		Expect(c.Observe(10, false)).NotTo(Equal(Compulsory))
	})

	It("should return None for hits but still record them", func() {
		Expect(c.Observe(10, true)).To(Equal(None))
		Expect(c.Observe(10, false)).To(Equal(Conflict))
	})

	It("should label a miss as conflict when the shadow still holds it", func() {
		c.Observe(10, false)
		c.Observe(11, false)

		Expect(c.Observe(10, false)).To(Equal(Conflict))
	})

	It("should label a miss as capacity when the shadow evicted it", func() {
		c.Observe(10, false)
		c.Observe(11, false)
		c.Observe(12, false)

		Expect(c.Observe(10, false)).To(Equal(Capacity))
	})

	It("should keep the shadow in LRU order across hits", func() {
		c.Observe(10, false)
		c.Observe(11, false)
		c.Observe(10, true)
		c.Observe(12, false)

		Expect(c.Observe(10, false)).To(Equal(Conflict))
		Expect(c.Observe(11, false)).To(Equal(Capacity))
	})

	It("should forget everything on reset", func() {
		c.Observe(10, false)
		c.Reset()

		Expect(c.Observe(10, false)).To(Equal(Compulsory))
	})
})
