package trace

import (
	"sync"

	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/simulation"
)

// StepCounter counts steps by where they were served, such as "L1", "L2",
// "Memory", "CPU", or "INVALID".
type StepCounter struct {
	lock   sync.Mutex
	names  []string
	counts map[string]uint64
	energy float64
}

// NewStepCounter creates an empty counter.
func NewStepCounter() *StepCounter {
	return &StepCounter{counts: make(map[string]uint64)}
}

// Func counts a step. A reset clears the counts.
func (c *StepCounter) Func(ctx hooking.HookCtx) {
	c.lock.Lock()
	defer c.lock.Unlock()

	switch ctx.Pos {
	case simulation.HookPosStep:
		e := ctx.Item.(simulation.HistoryEntry)

		name := e.Log.ServedBy
		if e.Log.AccessType == simulation.AccessInvalid {
			name = string(simulation.AccessInvalid)
		}

		if _, ok := c.counts[name]; !ok {
			c.names = append(c.names, name)
		}

		c.counts[name]++
		c.energy += e.Log.Energy
	case simulation.HookPosReset:
		c.names = nil
		c.counts = make(map[string]uint64)
		c.energy = 0
	}
}

// Names returns the names seen so far, in order of first appearance.
func (c *StepCounter) Names() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([]string(nil), c.names...)
}

// Count returns the number of steps with the given name.
func (c *StepCounter) Count(name string) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.counts[name]
}

// TotalEnergy returns the energy of all counted steps in pJ.
func (c *StepCounter) TotalEnergy() float64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.energy
}
