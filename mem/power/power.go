// Package power estimates the energy spent by each access to the memory
// hierarchy.
package power

import (
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/mem"
)

// Depth identifies where in the hierarchy an access is served.
type Depth int

// Depths of the hierarchy, from the closest to the core.
const (
	L1 Depth = iota
	L2
	Memory
)

func (d Depth) String() string {
	switch d {
	case L1:
		return "L1"
	case L2:
		return "L2"
	default:
		return "Memory"
	}
}

// Energy is measured in picojoules.
type Energy struct {
	Dynamic float64 `json:"dynamic"`
	Static  float64 `json:"static"`
}

// Total returns the sum of the dynamic and static energy.
func (e Energy) Total() float64 {
	return e.Dynamic + e.Static
}

// Add returns the component-wise sum of two energies.
func (e Energy) Add(other Energy) Energy {
	return Energy{
		Dynamic: e.Dynamic + other.Dynamic,
		Static:  e.Static + other.Static,
	}
}

// Model holds the constants of the energy model. Capacitances are in pF so
// that C*V^2 is in pJ; durations are in ns so that mW*ns is in pJ.
type Model struct {
	L1Capacitance     float64
	L2Capacitance     float64
	MemoryCapacitance float64
	ALUCapacitance    float64
	AccessDurationNS  float64
}

// DefaultModel returns the constants used by the simulator.
func DefaultModel() Model {
	return Model{
		L1Capacitance:     1,
		L2Capacitance:     4,
		MemoryCapacitance: 20,
		ALUCapacitance:    0.2,
		AccessDurationNS:  1,
	}
}

func (m Model) capacitance(d Depth) float64 {
	switch d {
	case L1:
		return m.L1Capacitance
	case L2:
		return m.L2Capacitance
	default:
		return m.MemoryCapacitance
	}
}

// EnergyForAccess returns the energy of looking up one level. The dynamic
// part depends only on the level and the supply voltage. The static part is
// the leakage of the level's capacity over one access duration. Main memory
// has no static part here. Hit and miss lookups cost the same at a level; a
// miss costs more overall because it also visits the next level.
func (m Model) EnergyForAccess(d Depth, _ bool, cfg cache.Config) Energy {
	e := Energy{Dynamic: m.capacitance(d) * cfg.Voltage * cfg.Voltage}
	if d != Memory {
		e.Static = m.staticEnergy(cfg)
	}

	return e
}

// EnergyForALU returns the energy of an instruction that does not touch
// memory. The L1 still leaks while the ALU works.
func (m Model) EnergyForALU(cfg cache.Config) Energy {
	return Energy{
		Dynamic: m.ALUCapacitance * cfg.Voltage * cfg.Voltage,
		Static:  m.staticEnergy(cfg),
	}
}

func (m Model) staticEnergy(cfg cache.Config) float64 {
	return cfg.StaticPower * float64(cfg.SizeBytes) / mem.KB * m.AccessDurationNS
}
