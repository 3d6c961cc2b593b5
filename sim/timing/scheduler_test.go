package timing

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ManualScheduler", func() {
	var (
		s   *ManualScheduler
		ran []string
	)

	BeforeEach(func() {
		s = NewManualScheduler()
		ran = nil
	})

	record := func(name string) func() {
		return func() { ran = append(ran, name) }
	}

	It("should run continuations in time order", func() {
		s.After(20*time.Millisecond, record("late"))
		s.After(10*time.Millisecond, record("early"))

		Expect(s.Pending()).To(Equal(2))
		Expect(s.Drain()).To(Equal(2))
		Expect(ran).To(Equal([]string{"early", "late"}))
		Expect(s.Now()).To(Equal(20 * time.Millisecond))
	})

	It("should keep insertion order for equal times", func() {
		s.After(time.Second, record("a"))
		s.After(time.Second, record("b"))

		s.Drain()

		Expect(ran).To(Equal([]string{"a", "b"}))
	})

	It("should not run cancelled continuations", func() {
		c := s.After(time.Second, record("cancelled"))

		Expect(c.Cancel()).To(BeTrue())
		Expect(c.Cancel()).To(BeFalse())
		Expect(s.RunNext()).To(BeFalse())
		Expect(ran).To(BeEmpty())
	})

	It("should report a continuation that already ran as not cancellable", func() {
		c := s.After(time.Second, record("ran"))
		s.RunNext()

		Expect(c.Cancel()).To(BeFalse())
	})

	It("should run chained continuations when advancing", func() {
		var tick func()
		count := 0
		tick = func() {
			count++
			s.After(100*time.Millisecond, tick)
		}
		s.After(100*time.Millisecond, tick)

		s.Advance(350 * time.Millisecond)

		Expect(count).To(Equal(3))
		Expect(s.Now()).To(Equal(350 * time.Millisecond))
		Expect(s.Pending()).To(Equal(1))
	})
})

var _ = Describe("WallClockScheduler", func() {
	It("should run the function after the delay", func() {
		s := NewWallClockScheduler()
		done := make(chan struct{})

		s.After(time.Millisecond, func() { close(done) })

		Eventually(done).Should(BeClosed())
	})

	It("should not run a cancelled function", func() {
		s := NewWallClockScheduler()
		fired := make(chan struct{}, 1)

		c := s.After(time.Hour, func() { fired <- struct{}{} })

		Expect(c.Cancel()).To(BeTrue())
		Consistently(fired, 20*time.Millisecond).ShouldNot(Receive())
	})
})
