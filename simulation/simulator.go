// Package simulation runs a program against a cache hierarchy one step at a
// time and keeps a scrubbable history of every step.
package simulation

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/hierarchy"
	"github.com/sarchlab/cachesim/mem/power"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/sim/timing"
	"github.com/sarchlab/cachesim/workload"
)

// Live is the view index that follows the newest step.
const Live = -1

// DefaultInterval is the playback interval used when none is given.
const DefaultInterval = time.Second

// Hook positions of a simulator.
var (
	// HookPosStep is triggered after a step. The item is the HistoryEntry.
	HookPosStep = &hooking.HookPos{Name: "Step"}

	// HookPosReset is triggered after a reset.
	HookPosReset = &hooking.HookPos{Name: "Reset"}

	// HookPosConfigure is triggered after a new configuration is applied.
	// The item is the Config.
	HookPosConfigure = &hooking.HookPos{Name: "Configure"}

	// HookPosStatus is triggered when the status changes. The item is the
	// new Status and the detail the old one.
	HookPosStatus = &hooking.HookPos{Name: "Status"}
)

// Simulator owns the hierarchy, the program, and the history. All methods
// are safe to call from multiple goroutines. Hooks run with the simulator
// locked and must not call back into it.
type Simulator struct {
	hooking.HookableBase

	lock sync.Mutex

	config    Config
	scheduler timing.Scheduler
	logger    *slog.Logger
	model     power.Model

	hierarchy *hierarchy.Hierarchy
	state     *workload.ExecutionState
	program   workload.Program
	parseErrs []*workload.ParseError

	history       []HistoryEntry
	baselineGrids []cache.Grid
	baselineStats []cache.Stats
	status        Status
	viewIndex     int

	interval   time.Duration
	pending    timing.Continuation
	generation uint64
}

// Configure validates and applies a new hierarchy configuration. On error
// nothing changes. On success the simulator is reset and keeps its program.
func (s *Simulator) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	h := s.buildHierarchy(config)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.config = config
	s.resetTo(h)

	s.logger.Info("cache configured",
		"l1Size", config.L1.SizeBytes,
		"l1Ways", config.L1.Associativity,
		"policy", config.L1.Policy,
		"l2Size", config.L2Config().SizeBytes)

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosConfigure,
		Item:   config,
	})

	return nil
}

// LoadTrace parses a trace, installs the valid lines as the program, and
// resets. The lines that did not parse are returned.
func (s *Simulator) LoadTrace(text string) []*workload.ParseError {
	program, errs := workload.Parse(text)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.program = program
	s.parseErrs = errs
	s.resetLocked()

	s.logger.Info("trace loaded",
		"instructions", len(program),
		"parseErrors", len(errs))

	return errs
}

// SetProgram installs an already parsed program and resets.
func (s *Simulator) SetProgram(program workload.Program) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.program = slices.Clone(program)
	s.parseErrs = nil
	s.resetLocked()
}

// Step executes the next instruction. It returns false when the program is
// exhausted. A manual step always returns the view to live.
func (s *Simulator) Step() (HistoryEntry, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.viewIndex = Live

	if s.status == Idle || s.status == Paused {
		s.setStatus(Stepping)
	}

	entry, ok := s.stepLocked()
	if !ok {
		return HistoryEntry{}, false
	}

	return entry.clone(), true
}

// Reset stops playback and returns to the state right after configuration.
// The program and the configuration are kept.
func (s *Simulator) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.resetLocked()
}

// Play steps every interval until the program ends or Pause is called. A
// non-positive interval means DefaultInterval. It returns false if there is
// nothing left to run.
func (s *Simulator) Play(interval time.Duration) bool {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.exhausted() {
		s.setStatus(Finished)
		return false
	}

	s.cancelPending()
	s.interval = interval
	s.viewIndex = Live
	s.setStatus(Playing)
	s.schedule()

	return true
}

// Pause cancels the pending playback step. Pausing when not playing does
// nothing.
func (s *Simulator) Pause() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.cancelPending()

	if s.status == Playing {
		s.setStatus(Paused)
	}
}

// JumpToStep moves the view. Steps already in the history are only shown;
// steps beyond it are executed first, stopping early if the program ends.
func (s *Simulator) JumpToStep(n int) (View, error) {
	if n < 0 {
		return View{}, fmt.Errorf("invalid step %d", n)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	switch {
	case n < len(s.history):
		s.viewIndex = n
	case n == len(s.history):
		s.viewIndex = Live
	default:
		s.viewIndex = Live
		if s.status == Idle || s.status == Paused {
			s.setStatus(Stepping)
		}

		for len(s.history) < n {
			if _, ok := s.stepLocked(); !ok {
				break
			}
		}
	}

	return s.viewLocked(), nil
}

// RunAll executes the rest of the program and returns the number of steps
// it took.
func (s *Simulator) RunAll() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.cancelPending()
	s.viewIndex = Live

	count := 0
	for {
		if _, ok := s.stepLocked(); !ok {
			break
		}

		count++
	}

	s.setStatus(Finished)

	return count
}

// Status returns the playback state.
func (s *Simulator) Status() Status {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.status
}

// StepIndex returns the number of executed instructions.
func (s *Simulator) StepIndex() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.history)
}

// ViewIndex returns the viewed step, or Live.
func (s *Simulator) ViewIndex() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.viewIndex
}

// HistoryLen returns the number of recorded steps.
func (s *Simulator) HistoryLen() int {
	return s.StepIndex()
}

// Entry returns the step with the given 1-based number.
func (s *Simulator) Entry(step int) (HistoryEntry, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if step < 1 || step > len(s.history) {
		return HistoryEntry{}, false
	}

	return s.history[step-1].clone(), true
}

// Logs returns the log entry of every recorded step.
func (s *Simulator) Logs() []LogEntry {
	s.lock.Lock()
	defer s.lock.Unlock()

	logs := make([]LogEntry, len(s.history))
	for i, e := range s.history {
		logs[i] = e.clone().Log
	}

	return logs
}

// Stats returns the per-level counters at the viewed step.
func (s *Simulator) Stats() []cache.Stats {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.viewLocked().Stats
}

// CurrentView returns what the timeline shows now.
func (s *Simulator) CurrentView() View {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.viewLocked()
}

// Config returns the applied configuration.
func (s *Simulator) Config() Config {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.config
}

// Program returns the loaded program.
func (s *Simulator) Program() workload.Program {
	s.lock.Lock()
	defer s.lock.Unlock()

	return slices.Clone(s.program)
}

// ParseErrors returns the errors of the last loaded trace.
func (s *Simulator) ParseErrors() []*workload.ParseError {
	s.lock.Lock()
	defer s.lock.Unlock()

	return slices.Clone(s.parseErrs)
}

// Inspect runs fn on the live hierarchy with the simulator locked. fn must
// not keep the hierarchy or call back into the simulator.
func (s *Simulator) Inspect(fn func(h *hierarchy.Hierarchy)) {
	s.lock.Lock()
	defer s.lock.Unlock()

	fn(s.hierarchy)
}

func (s *Simulator) exhausted() bool {
	return len(s.history) >= len(s.program)
}

func (s *Simulator) stepLocked() (HistoryEntry, bool) {
	if s.exhausted() {
		s.cancelPending()
		s.setStatus(Finished)

		return HistoryEntry{}, false
	}

	inst := s.program[len(s.history)]
	entry := s.execute(inst)
	s.history = append(s.history, entry)

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosStep,
		Item:   entry,
	})

	if s.exhausted() {
		s.cancelPending()
		s.setStatus(Finished)
	}

	return entry, true
}

func (s *Simulator) execute(inst workload.Instruction) HistoryEntry {
	step := len(s.history) + 1
	entry := HistoryEntry{
		Step:        step,
		Instruction: inst.Text(),
		Log: LogEntry{
			Step:        step,
			SetIndex:    -1,
			WayIndex:    -1,
			Instruction: inst.Text(),
		},
	}

	var err error
	if m, ok := inst.(workload.MemoryAccess); ok {
		err = s.executeMemory(m, &entry)
	} else {
		err = s.executeALU(inst, &entry)
	}

	if err != nil {
		entry.Err = err.Error()
		entry.Result = nil
		entry.Log = LogEntry{
			Step:        step,
			AccessType:  AccessInvalid,
			SetIndex:    -1,
			WayIndex:    -1,
			Instruction: inst.Text(),
			Error:       err.Error(),
		}

		s.logger.Warn("invalid step", "step", step, "error", err)
	}

	entry.State = s.state.Snapshot()
	entry.Grids = s.hierarchy.Grids()
	entry.Stats = s.hierarchy.Stats()

	return entry
}

func (s *Simulator) executeMemory(
	m workload.MemoryAccess,
	entry *HistoryEntry,
) error {
	req := s.state.Request(m)

	res, err := s.hierarchy.Access(req)
	if err != nil {
		var accessErr *hierarchy.AccessError
		if errors.As(err, &accessErr) {
			return &workload.ExecError{
				Line:   m.Line(),
				Text:   m.Text(),
				Reason: accessErr.Error(),
			}
		}

		return err
	}

	s.state.Retire(m, res.FinalValue)

	l1 := res.Levels[0]
	addr := res.Address
	entry.Result = &res
	entry.Log.Address = &addr
	entry.Log.AccessType = AccessMem
	entry.Log.IsHit = res.IsHit
	entry.Log.L2Hit = res.L2Hit
	entry.Log.SetIndex = l1.SetIndex
	entry.Log.WayIndex = l1.WayIndex
	entry.Log.Tag = l1.Tag
	entry.Log.Energy = res.Energy.Total()
	entry.Log.Data = res.FinalValue
	entry.Log.ServedBy = res.ServedBy.String()

	if !l1.Hit {
		missType := l1.MissType
		entry.Log.MissType = &missType
	}

	return nil
}

func (s *Simulator) executeALU(
	inst workload.Instruction,
	entry *HistoryEntry,
) error {
	value, err := s.state.Exec(inst)
	if err != nil {
		return err
	}

	entry.Log.AccessType = AccessALU
	entry.Log.Energy = s.hierarchy.ALUEnergy().Total()
	entry.Log.Data = value.Int
	entry.Log.Text = value.Str
	entry.Log.ServedBy = ServedByCPU

	return nil
}

func (s *Simulator) viewLocked() View {
	if s.viewIndex == Live || s.viewIndex >= len(s.history) {
		return s.viewAt(len(s.history), true)
	}

	return s.viewAt(s.viewIndex, false)
}

func (s *Simulator) viewAt(step int, live bool) View {
	if step == 0 {
		return View{
			Step:  0,
			Live:  live,
			Grids: cloneGrids(s.baselineGrids),
			Stats: slices.Clone(s.baselineStats),
			State: workload.NewExecutionState().Snapshot(),
		}
	}

	entry := s.history[step-1].clone()

	return View{
		Step:  step,
		Live:  live,
		Entry: &entry,
		Grids: entry.Grids,
		Stats: entry.Stats,
		State: entry.State,
	}
}

func (s *Simulator) schedule() {
	gen := s.generation
	s.pending = s.scheduler.After(s.interval, func() {
		s.continuePlay(gen)
	})
}

func (s *Simulator) continuePlay(gen uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if gen != s.generation {
		return
	}

	s.pending = nil

	if _, ok := s.stepLocked(); !ok {
		return
	}

	if s.status == Playing && !s.exhausted() {
		s.schedule()
	}
}

func (s *Simulator) cancelPending() {
	s.generation++

	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
}

func (s *Simulator) setStatus(status Status) {
	if s.status == status {
		return
	}

	old := s.status
	s.status = status

	s.logger.Debug("status changed", "from", old, "to", status)

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosStatus,
		Item:   status,
		Detail: old,
	})
}

func (s *Simulator) resetLocked() {
	s.resetTo(s.buildHierarchy(s.config))
}

// resetTo installs a fresh hierarchy and clears the run. A fresh hierarchy
// makes random replacement restart from the seed.
func (s *Simulator) resetTo(h *hierarchy.Hierarchy) {
	s.cancelPending()
	s.install(h)
	s.history = nil
	s.viewIndex = Live
	s.setStatus(Idle)

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosReset,
	})
}

func (s *Simulator) install(h *hierarchy.Hierarchy) {
	s.hierarchy = h
	s.state.Reset()
	s.baselineGrids = h.Grids()
	s.baselineStats = h.Stats()
}

// buildHierarchy only reads fields that never change after Build, so it
// may run without the lock.
func (s *Simulator) buildHierarchy(config Config) *hierarchy.Hierarchy {
	return hierarchy.MakeBuilder().
		WithConfig(config).
		WithPowerModel(s.model).
		WithLogger(s.logger).
		Build()
}
