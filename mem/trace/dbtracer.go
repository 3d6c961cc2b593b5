package trace

import (
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/simulation"
)

// Table names written by the DB tracer.
const (
	StepTable     = "cache_steps"
	EvictionTable = "cache_evictions"
)

// StepRow is a row of the step table. Address is -1 for steps that do not
// access memory.
type StepRow struct {
	RunID       string
	Step        int
	Instruction string
	AccessType  string
	Address     int64
	IsHit       bool
	L2Hit       bool
	SetIndex    int
	WayIndex    int
	Tag         uint64
	MissType    string
	ServedBy    string
	Energy      float64
	Data        int64
	Text        string
	Error       string
}

// EvictionRow is a row of the eviction table.
type EvictionRow struct {
	RunID        string
	Step         int
	Level        string
	Tag          uint64
	BlockAddress uint64
	Dirty        bool
}

// DBTracer is a hook that writes every step, and every block it evicted,
// into a data recorder.
type DBTracer struct {
	runID    string
	recorder datarecording.DataRecorder
}

// NewDBTracer creates the tables and returns the tracer. Rows are tagged
// with runID so that several runs can share a file.
func NewDBTracer(
	recorder datarecording.DataRecorder,
	runID string,
) *DBTracer {
	recorder.CreateTable(StepTable, StepRow{})
	recorder.CreateTable(EvictionTable, EvictionRow{})

	return &DBTracer{
		runID:    runID,
		recorder: recorder,
	}
}

// Func records steps and flushes on reset so that a run is complete on
// disk before the next one starts.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case simulation.HookPosStep:
		t.recordStep(ctx.Item.(simulation.HistoryEntry))
	case simulation.HookPosReset:
		t.recorder.Flush()
	}
}

func (t *DBTracer) recordStep(e simulation.HistoryEntry) {
	l := e.Log
	row := StepRow{
		RunID:       t.runID,
		Step:        l.Step,
		Instruction: l.Instruction,
		AccessType:  string(l.AccessType),
		Address:     -1,
		IsHit:       l.IsHit,
		L2Hit:       l.L2Hit,
		SetIndex:    l.SetIndex,
		WayIndex:    l.WayIndex,
		Tag:         l.Tag,
		ServedBy:    l.ServedBy,
		Energy:      l.Energy,
		Data:        l.Data,
		Text:        l.Text,
		Error:       l.Error,
	}

	if l.Address != nil {
		row.Address = int64(*l.Address)
	}

	if l.MissType != nil {
		row.MissType = l.MissType.String()
	}

	t.recorder.InsertData(StepTable, row)

	if e.Result == nil {
		return
	}

	for _, level := range e.Result.Levels {
		if level.Evicted == nil {
			continue
		}

		t.recorder.InsertData(EvictionTable, EvictionRow{
			RunID:        t.runID,
			Step:         l.Step,
			Level:        level.Level,
			Tag:          level.Evicted.Tag,
			BlockAddress: level.Evicted.BlockAddress,
			Dirty:        level.Evicted.Dirty,
		})
	}
}
