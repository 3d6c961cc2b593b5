// Package hierarchy routes accesses through L1, L2, and main memory.
package hierarchy

import (
	"fmt"
	"log/slog"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/mem"
	"github.com/sarchlab/cachesim/mem/power"
)

// An AccessError reports a request that cannot be served, such as one with a
// negative address.
type AccessError struct {
	Address int64
	Reason  string
}

func (e *AccessError) Error() string {
	if e.Address < 0 {
		return fmt.Sprintf("invalid access to address %d: %s", e.Address, e.Reason)
	}

	return fmt.Sprintf("invalid access to address 0x%x: %s", e.Address, e.Reason)
}

// Result is the combined outcome of one access.
type Result struct {
	Kind       mem.AccessKind       `json:"kind"`
	Address    uint64               `json:"address"`
	IsHit      bool                 `json:"isHit"`
	L2Hit      bool                 `json:"l2Hit"`
	ServedBy   power.Depth          `json:"servedBy"`
	Levels     []cache.AccessResult `json:"levels"`
	Energy     power.Energy         `json:"energy"`
	FinalValue int64                `json:"finalValue"`
	Writebacks []cache.Eviction     `json:"writebacks,omitempty"`
}

// MissTypes returns the miss type of every level that missed, in order.
func (r Result) MissTypes() []cache.MissType {
	var types []cache.MissType

	for _, l := range r.Levels {
		if !l.Hit {
			types = append(types, l.MissType)
		}
	}

	return types
}

// Hierarchy is an ordered list of cache levels in front of main memory.
type Hierarchy struct {
	config  Config
	levels  []*cache.Level
	storage *mem.Storage
	model   power.Model
	logger  *slog.Logger
}

// Config returns the configuration of the hierarchy.
func (h *Hierarchy) Config() Config {
	return h.config
}

// Levels returns the cache levels, L1 first.
func (h *Hierarchy) Levels() []*cache.Level {
	return h.levels
}

// Level returns the level with the given name, or nil.
func (h *Hierarchy) Level(name string) *cache.Level {
	for _, l := range h.levels {
		if l.Name() == name {
			return l
		}
	}

	return nil
}

// Access serves a load or a store. Levels are tried in order and the first
// hit stops the walk; every level that missed gets the block installed. A
// store dirties the block in L1 only.
func (h *Hierarchy) Access(req mem.AccessRequest) (Result, error) {
	if err := h.checkAddress(req.Address); err != nil {
		return Result{}, err
	}

	addr := uint64(req.Address)
	res := Result{
		Kind:     req.Kind,
		Address:  addr,
		ServedBy: power.Memory,
	}

	for i, level := range h.levels {
		kind := mem.Load
		if i == 0 {
			kind = req.Kind
		}

		levelRes := level.Access(addr, kind)
		res.Levels = append(res.Levels, levelRes)
		res.Energy = res.Energy.Add(
			h.model.EnergyForAccess(depthOf(i), levelRes.Hit, level.Config()))

		if levelRes.Evicted != nil && levelRes.Evicted.Dirty {
			res.Writebacks = append(res.Writebacks, *levelRes.Evicted)
			h.logger.Debug("dirty block evicted",
				"level", level.Name(),
				"blockAddress", levelRes.Evicted.BlockAddress)
		}

		if levelRes.Hit {
			res.ServedBy = depthOf(i)
			break
		}
	}

	if res.ServedBy == power.Memory {
		res.Energy = res.Energy.Add(h.model.EnergyForAccess(
			power.Memory, true, h.levels[len(h.levels)-1].Config()))
	}

	res.IsHit = len(res.Levels) > 0 && res.Levels[0].Hit
	res.L2Hit = len(res.Levels) > 1 && res.Levels[1].Hit

	if err := h.moveData(req, &res); err != nil {
		return Result{}, err
	}

	return res, nil
}

func (h *Hierarchy) moveData(req mem.AccessRequest, res *Result) error {
	if req.Kind == mem.Store {
		res.FinalValue = int64(req.StoreValue)
		return h.storage.WriteWord(res.Address, req.StoreValue)
	}

	value, err := h.storage.ReadWord(res.Address)
	if err != nil {
		return err
	}

	res.FinalValue = int64(value)

	return nil
}

func (h *Hierarchy) checkAddress(address int64) error {
	if address < 0 {
		return &AccessError{Address: address, Reason: "negative address"}
	}

	if uint64(address)+mem.WordSize-1 > h.config.AddressLimit() {
		return &AccessError{
			Address: address,
			Reason: fmt.Sprintf("beyond the address space (max 0x%x)",
				h.config.AddressLimit()),
		}
	}

	return nil
}

func depthOf(levelIndex int) power.Depth {
	if levelIndex >= int(power.Memory) {
		return power.Memory - 1
	}

	return power.Depth(levelIndex)
}

// Stats returns the counters of every level, L1 first.
func (h *Hierarchy) Stats() []cache.Stats {
	stats := make([]cache.Stats, len(h.levels))
	for i, l := range h.levels {
		stats[i] = l.Stats()
	}

	return stats
}

// Grids returns a copy of the blocks of every level, L1 first.
func (h *Hierarchy) Grids() []cache.Grid {
	grids := make([]cache.Grid, len(h.levels))
	for i, l := range h.levels {
		grids[i] = l.Grid()
	}

	return grids
}

// ALUEnergy returns the energy of an instruction that stays in the core.
func (h *Hierarchy) ALUEnergy() power.Energy {
	return h.model.EnergyForALU(h.levels[0].Config())
}
