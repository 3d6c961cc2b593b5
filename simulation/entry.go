package simulation

import (
	"maps"
	"slices"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/hierarchy"
	"github.com/sarchlab/cachesim/workload"
)

// AccessType tells what kind of work a step did.
type AccessType string

// Access types of a log entry.
const (
	AccessMem     AccessType = "MEM"
	AccessALU     AccessType = "ALU"
	AccessInvalid AccessType = "INVALID"
)

// ServedByCPU marks a step that never left the core.
const ServedByCPU = "CPU"

// LogEntry is the flat per-step record consumed by the monitor and the
// recorders. SetIndex and WayIndex are -1 when the step did not reach L1.
type LogEntry struct {
	Step        int             `json:"step"`
	Address     *uint64         `json:"address"`
	AccessType  AccessType      `json:"accessType"`
	IsHit       bool            `json:"isHit"`
	L2Hit       bool            `json:"l2Hit"`
	SetIndex    int             `json:"setIndex"`
	WayIndex    int             `json:"wayIndex"`
	Tag         uint64          `json:"tag"`
	MissType    *cache.MissType `json:"missType"`
	Energy      float64         `json:"energy"`
	Data        int64           `json:"data"`
	Text        string          `json:"text,omitempty"`
	ServedBy    string          `json:"servedBy"`
	Instruction string          `json:"instruction"`
	Error       string          `json:"error,omitempty"`
}

// HistoryEntry is everything recorded about one executed step.
type HistoryEntry struct {
	Step        int               `json:"step"`
	Instruction string            `json:"instruction"`
	Log         LogEntry          `json:"log"`
	Result      *hierarchy.Result `json:"result,omitempty"`
	State       workload.Snapshot `json:"state"`
	Grids       []cache.Grid      `json:"grids"`
	Stats       []cache.Stats     `json:"stats"`
	Err         string            `json:"error,omitempty"`
}

func (e HistoryEntry) clone() HistoryEntry {
	c := e

	if e.Log.Address != nil {
		addr := *e.Log.Address
		c.Log.Address = &addr
	}

	if e.Log.MissType != nil {
		mt := *e.Log.MissType
		c.Log.MissType = &mt
	}

	if e.Result != nil {
		r := *e.Result
		r.Levels = slices.Clone(e.Result.Levels)

		for i, l := range r.Levels {
			if l.Evicted != nil {
				ev := *l.Evicted
				r.Levels[i].Evicted = &ev
			}
		}

		r.Writebacks = slices.Clone(e.Result.Writebacks)
		c.Result = &r
	}

	c.State.Variables = maps.Clone(e.State.Variables)
	c.Grids = cloneGrids(e.Grids)
	c.Stats = slices.Clone(e.Stats)

	return c
}

func cloneGrids(grids []cache.Grid) []cache.Grid {
	out := make([]cache.Grid, len(grids))
	for i, g := range grids {
		out[i] = g
		out[i].Sets = make([][]cache.BlockState, len(g.Sets))

		for j, set := range g.Sets {
			out[i].Sets[j] = slices.Clone(set)
		}
	}

	return out
}

// View is what the timeline shows at one position. Step 0 is the state
// right after a reset.
type View struct {
	Step  int               `json:"step"`
	Live  bool              `json:"live"`
	Entry *HistoryEntry     `json:"entry,omitempty"`
	Grids []cache.Grid      `json:"grids"`
	Stats []cache.Stats     `json:"stats"`
	State workload.Snapshot `json:"state"`
}
