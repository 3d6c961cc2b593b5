package workload

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/mem/mem"
)

func mustParse(line string) Instruction {
	inst, err := ParseLine(1, line)
	Expect(err).To(BeNil())

	return inst
}

var _ = Describe("ExecutionState", func() {
	var s *ExecutionState

	BeforeEach(func() {
		s = NewExecutionState()
	})

	It("should keep x0 at zero", func() {
		v, err := s.Exec(mustParse("ADDI x0, x0, 9"))

		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(IntValue(0)))
		Expect(s.Register(0)).To(BeZero())
	})

	It("should run the register arithmetic", func() {
		_, _ = s.Exec(mustParse("ADDI x1, x0, 5"))
		_, _ = s.Exec(mustParse("ADDI x2, x0, 10"))
		v, err := s.Exec(mustParse("ADD x3, x1, x2"))

		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(IntValue(15)))

		v, _ = s.Exec(mustParse("SUB x4, x1, x2"))
		Expect(v).To(Equal(IntValue(-5)))
	})

	It("should wrap around 32 bits", func() {
		s.SetRegister(1, math.MaxInt32)
		v, _ := s.Exec(mustParse("ADDI x2, x1, 1"))

		Expect(v).To(Equal(IntValue(math.MinInt32)))
	})

	It("should evaluate assignments with earlier variables", func() {
		_, _ = s.Exec(mustParse("var a = 10"))
		_, _ = s.Exec(mustParse("var b = 20"))
		v, err := s.Exec(mustParse("var c = a + b * 2 - 6 / 4"))

		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(IntValue(49)))

		v, err = s.Exec(mustParse("c"))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(IntValue(49)))
	})

	It("should hold string values", func() {
		v, err := s.Exec(mustParse(`var s = "Hello"`))

		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(StringValue("Hello")))

		v, err = s.Exec(mustParse("s"))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(StringValue("Hello")))

		v, err = s.Exec(mustParse(`var t = s + ", " + 'world'`))
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Str).To(Equal("Hello, world"))
		Expect(v.String()).To(Equal(`"Hello, world"`))
	})

	DescribeTable("mixing strings and integers",
		func(line, reason string) {
			_, _ = s.Exec(mustParse(`var s = "x"`))

			_, err := s.Exec(mustParse(line))
			Expect(err).To(MatchError(ContainSubstring(reason)))
		},
		Entry("add", "var a = s + 1", "cannot apply + to string and integer"),
		Entry("multiply", `var a = "ab" * "cd"`, "cannot apply *"),
		Entry("negate", "var a = -s", "cannot negate a string"),
	)

	It("should fail on undefined variables", func() {
		_, err := s.Exec(mustParse("var a = b + 1"))

		var execErr *ExecError
		Expect(err).To(BeAssignableToTypeOf(execErr))
		Expect(err.Error()).To(ContainSubstring("undefined variable"))

		Expect(s.Snapshot().Variables).NotTo(HaveKey("a"))

		_, err = s.Exec(mustParse("ghost"))
		Expect(err).To(MatchError(ContainSubstring("undefined variable ghost")))
	})

	It("should fail on division by zero", func() {
		_, err := s.Exec(mustParse("var a = 1 / (2 - 2)"))

		Expect(err).To(MatchError(ContainSubstring("division by zero")))
	})

	It("should build memory requests from registers", func() {
		s.SetRegister(2, 0x100)
		s.SetRegister(3, 42)

		req := s.Request(mustParse("SW x3, 8(x2)").(MemoryAccess))
		Expect(req).To(Equal(mem.StoreReq(0x108, 42)))

		req = s.Request(mustParse("0x40").(MemoryAccess))
		Expect(req).To(Equal(mem.LoadReq(0x40)))

		req = s.Request(mustParse("LW x4, -0x200(x2)").(MemoryAccess))
		Expect(req.Address).To(Equal(int64(-0x100)))
	})

	It("should write the loaded value on retire", func() {
		lw := mustParse("LW x4, 0(x0)").(MemoryAccess)
		s.Retire(lw, 77)

		Expect(s.Register(4)).To(Equal(int32(77)))

		s.Retire(mustParse("SW x5, 0(x0)").(MemoryAccess), 1)
		Expect(s.Register(5)).To(BeZero())
	})

	It("should return independent snapshots and reset", func() {
		_, _ = s.Exec(mustParse("var a = 1"))
		snap := s.Snapshot()
		_, _ = s.Exec(mustParse("var a = 2"))

		Expect(snap.Variables["a"]).To(Equal(IntValue(1)))

		s.Reset()
		Expect(s.Snapshot().Variables).To(BeEmpty())
	})

	It("should refuse memory instructions in Exec", func() {
		_, err := s.Exec(mustParse("0x10"))

		Expect(err).To(HaveOccurred())
	})
})
