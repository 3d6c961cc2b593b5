// Package timing schedules delayed work for the simulator's playback.
package timing

import (
	"sort"
	"sync"
	"time"
)

// A Continuation is a piece of work that has been scheduled but may not have
// run yet.
type Continuation interface {
	// Cancel prevents the continuation from running. It returns false if the
	// continuation has already run or has already been cancelled.
	Cancel() bool
}

// A Scheduler runs functions after a delay.
type Scheduler interface {
	After(d time.Duration, fn func()) Continuation
}

// WallClockScheduler schedules continuations on real timers. The function
// runs on its own goroutine, so callers must guard shared state.
type WallClockScheduler struct{}

// NewWallClockScheduler creates a WallClockScheduler.
func NewWallClockScheduler() *WallClockScheduler {
	return &WallClockScheduler{}
}

// After schedules fn to run once d has elapsed.
func (s *WallClockScheduler) After(d time.Duration, fn func()) Continuation {
	return &timerContinuation{timer: time.AfterFunc(d, fn)}
}

type timerContinuation struct {
	timer *time.Timer
}

func (c *timerContinuation) Cancel() bool {
	return c.timer.Stop()
}

// ManualScheduler keeps continuations in a virtual-time queue and only runs
// them when asked. Continuations run on the caller's goroutine.
type ManualScheduler struct {
	lock    sync.Mutex
	now     time.Duration
	nextSeq uint64
	queue   []*manualContinuation
}

// NewManualScheduler creates a ManualScheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

type manualContinuation struct {
	scheduler *ManualScheduler
	at        time.Duration
	seq       uint64
	fn        func()
	done      bool
}

func (c *manualContinuation) Cancel() bool {
	s := c.scheduler

	s.lock.Lock()
	defer s.lock.Unlock()

	if c.done {
		return false
	}

	c.done = true
	s.remove(c)

	return true
}

// After queues fn to run at Now()+d.
func (s *ManualScheduler) After(d time.Duration, fn func()) Continuation {
	s.lock.Lock()
	defer s.lock.Unlock()

	if d < 0 {
		d = 0
	}

	c := &manualContinuation{
		scheduler: s,
		at:        s.now + d,
		seq:       s.nextSeq,
		fn:        fn,
	}
	s.nextSeq++

	s.queue = append(s.queue, c)
	sort.SliceStable(s.queue, func(i, j int) bool {
		if s.queue[i].at != s.queue[j].at {
			return s.queue[i].at < s.queue[j].at
		}

		return s.queue[i].seq < s.queue[j].seq
	})

	return c
}

// Now returns the current virtual time.
func (s *ManualScheduler) Now() time.Duration {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.now
}

// Pending returns the number of continuations that are waiting to run.
func (s *ManualScheduler) Pending() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.queue)
}

// RunNext advances the virtual time to the earliest pending continuation and
// runs it. It returns false if nothing is pending.
func (s *ManualScheduler) RunNext() bool {
	s.lock.Lock()

	if len(s.queue) == 0 {
		s.lock.Unlock()
		return false
	}

	c := s.queue[0]
	s.queue = s.queue[1:]
	c.done = true

	if c.at > s.now {
		s.now = c.at
	}

	s.lock.Unlock()

	c.fn()

	return true
}

// Advance moves the virtual time forward by d, running every continuation
// that becomes due, including the ones scheduled by continuations that run
// during the advance.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.lock.Lock()
	deadline := s.now + d
	s.lock.Unlock()

	for {
		s.lock.Lock()
		if len(s.queue) == 0 || s.queue[0].at > deadline {
			s.now = deadline
			s.lock.Unlock()

			return
		}
		s.lock.Unlock()

		s.RunNext()
	}
}

// Drain runs continuations until the queue is empty. It returns the number
// of continuations that ran.
func (s *ManualScheduler) Drain() int {
	n := 0
	for s.RunNext() {
		n++
	}

	return n
}

func (s *ManualScheduler) remove(c *manualContinuation) {
	for i, queued := range s.queue {
		if queued == c {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}
