package mem

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Storage", func() {
	var storage *Storage

	BeforeEach(func() {
		storage = NewStorage(64 * KB)
	})

	It("should read zero from untouched memory", func() {
		data, err := storage.Read(0x100, 8)

		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(make([]byte, 8)))
	})

	It("should write and read across unit boundaries", func() {
		data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

		Expect(storage.Write(4092, data)).To(Succeed())

		readBack, err := storage.Read(4092, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(readBack).To(Equal(data))
	})

	It("should round-trip signed words", func() {
		Expect(storage.WriteWord(0x100, -15)).To(Succeed())

		value, err := storage.ReadWord(0x100)
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal(int32(-15)))
	})

	It("should reject addresses beyond the capacity", func() {
		_, err := storage.Read(64*KB, 4)
		Expect(err).To(HaveOccurred())

		Expect(storage.WriteWord(64*KB-2, 1)).NotTo(Succeed())
	})
})
