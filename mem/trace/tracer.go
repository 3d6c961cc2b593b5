// Package trace provides hooks that record every step of a simulator, either
// into a log or into a database.
package trace

import (
	"log/slog"

	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/simulation"
)

// A logTracer is a hook that writes one log record per step.
type logTracer struct {
	logger *slog.Logger
}

// NewLogTracer creates a hook that logs steps at info level and status
// changes at debug level.
func NewLogTracer(logger *slog.Logger) hooking.Hook {
	return &logTracer{logger: logger}
}

func (t *logTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case simulation.HookPosStep:
		t.logStep(ctx.Item.(simulation.HistoryEntry))
	case simulation.HookPosStatus:
		t.logger.Debug("status",
			"from", ctx.Detail,
			"to", ctx.Item)
	case simulation.HookPosReset:
		t.logger.Debug("reset")
	}
}

func (t *logTracer) logStep(e simulation.HistoryEntry) {
	l := e.Log
	attrs := []any{
		"step", l.Step,
		"instruction", l.Instruction,
		"type", l.AccessType,
	}

	switch l.AccessType {
	case simulation.AccessMem:
		attrs = append(attrs,
			"address", *l.Address,
			"hit", l.IsHit,
			"l2Hit", l.L2Hit,
			"set", l.SetIndex,
			"way", l.WayIndex,
			"servedBy", l.ServedBy,
			"energy", l.Energy)

		if l.MissType != nil {
			attrs = append(attrs, "miss", l.MissType.String())
		}
	case simulation.AccessALU:
		if l.Text != "" {
			attrs = append(attrs, "text", l.Text)
		} else {
			attrs = append(attrs, "data", l.Data)
		}

		attrs = append(attrs, "energy", l.Energy)
	case simulation.AccessInvalid:
		t.logger.Warn("step", append(attrs, "error", l.Error)...)
		return
	}

	t.logger.Info("step", attrs...)
}
