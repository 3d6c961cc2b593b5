package workload

import (
	"maps"

	"github.com/sarchlab/cachesim/mem/mem"
)

// NumRegisters is the size of the register file. x0 always reads zero.
const NumRegisters = 32

// Snapshot is a copy of the architectural state.
type Snapshot struct {
	Registers [NumRegisters]int32 `json:"registers"`
	Variables map[string]Value    `json:"variables"`
}

// ExecutionState holds the registers and the named variables of the
// running program.
type ExecutionState struct {
	regs [NumRegisters]int32
	vars map[string]Value
}

// NewExecutionState creates a state with every register at zero and no
// variables.
func NewExecutionState() *ExecutionState {
	return &ExecutionState{vars: make(map[string]Value)}
}

// Register returns the value of xi.
func (s *ExecutionState) Register(i int) int32 {
	return s.regs[i]
}

// SetRegister writes xi. Writes to x0 are dropped.
func (s *ExecutionState) SetRegister(i int, value int32) {
	if i == 0 {
		return
	}

	s.regs[i] = value
}

// Snapshot copies the current state.
func (s *ExecutionState) Snapshot() Snapshot {
	return Snapshot{
		Registers: s.regs,
		Variables: maps.Clone(s.vars),
	}
}

// Reset zeroes the registers and forgets every variable.
func (s *ExecutionState) Reset() {
	s.regs = [NumRegisters]int32{}
	s.vars = make(map[string]Value)
}

// Request builds the memory request of an access. The effective address of
// LW/SW is base register plus offset.
func (s *ExecutionState) Request(m MemoryAccess) mem.AccessRequest {
	if m.IsRaw() {
		return mem.LoadReq(m.Offset)
	}

	addr := int64(s.regs[m.Base]) + m.Offset
	if m.Kind == mem.Store {
		return mem.StoreReq(addr, s.regs[m.Reg])
	}

	return mem.LoadReq(addr)
}

// Retire finishes an access once memory returned its value. LW writes the
// destination register.
func (s *ExecutionState) Retire(m MemoryAccess, value int64) {
	if m.IsRaw() || m.Kind != mem.Load {
		return
	}

	s.SetRegister(m.Reg, int32(value))
}

// Exec runs an instruction that does not touch memory and returns the value
// it produced. Memory accesses go through Request and Retire instead.
func (s *ExecutionState) Exec(inst Instruction) (Value, error) {
	switch i := inst.(type) {
	case AluOp:
		return IntValue(int64(s.execAlu(i))), nil
	case Assign:
		value, err := i.Expr.Eval(s.vars)
		if err != nil {
			return Value{}, execError(inst, err)
		}

		s.vars[i.Name] = value

		return value, nil
	case VarRef:
		value, ok := s.vars[i.Name]
		if !ok {
			return Value{}, &ExecError{
				Line:   i.Line(),
				Text:   i.Text(),
				Reason: "undefined variable " + i.Name,
			}
		}

		return value, nil
	}

	return Value{}, &ExecError{
		Line:   inst.Line(),
		Text:   inst.Text(),
		Reason: "not an ALU instruction",
	}
}

func (s *ExecutionState) execAlu(i AluOp) int32 {
	var value int32

	switch i.Op {
	case OpAdd:
		value = s.regs[i.Rs1] + s.regs[i.Rs2]
	case OpAddi:
		value = s.regs[i.Rs1] + i.Imm
	case OpSub:
		value = s.regs[i.Rs1] - s.regs[i.Rs2]
	}

	s.SetRegister(i.Rd, value)

	return s.regs[i.Rd]
}

func execError(inst Instruction, err error) *ExecError {
	return &ExecError{Line: inst.Line(), Text: inst.Text(), Reason: err.Error()}
}
