// Package workload turns trace text into instructions and holds the
// architectural state those instructions change.
package workload

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem/mem"
)

// An Instruction is one executable line of a trace.
type Instruction interface {
	// Line returns the 1-based source line.
	Line() int

	// Text returns the trimmed source text.
	Text() string

	// TouchesMemory tells if the instruction issues a memory access.
	TouchesMemory() bool
}

// A Program is the ordered list of instructions of a trace.
type Program []Instruction

type source struct {
	line int
	text string
}

func (s source) Line() int {
	return s.line
}

func (s source) Text() string {
	return s.text
}

// NoRegister marks a memory access that does not use a register.
const NoRegister = -1

// MemoryAccess is either a raw address line or an LW/SW instruction.
//
// A raw address has Base and Reg set to NoRegister and the address in
// Offset. For LW, Reg is the destination; for SW, Reg holds the value to
// store.
type MemoryAccess struct {
	source
	Kind   mem.AccessKind
	Reg    int
	Base   int
	Offset int64
}

// TouchesMemory returns true.
func (MemoryAccess) TouchesMemory() bool {
	return true
}

// IsRaw tells if the access came from a bare address line.
func (m MemoryAccess) IsRaw() bool {
	return m.Base == NoRegister
}

// AluOpcode names a register-to-register operation.
type AluOpcode int

// Supported ALU operations.
const (
	OpAdd AluOpcode = iota
	OpAddi
	OpSub
)

func (o AluOpcode) String() string {
	switch o {
	case OpAdd:
		return "ADD"
	case OpAddi:
		return "ADDI"
	case OpSub:
		return "SUB"
	default:
		return fmt.Sprintf("AluOpcode(%d)", int(o))
	}
}

// AluOp is ADD, ADDI, or SUB.
type AluOp struct {
	source
	Op  AluOpcode
	Rd  int
	Rs1 int
	Rs2 int
	Imm int32
}

// TouchesMemory returns false.
func (AluOp) TouchesMemory() bool {
	return false
}

// Assign is a `var name = expr` line.
type Assign struct {
	source
	Name string
	Expr Expr
}

// TouchesMemory returns false.
func (Assign) TouchesMemory() bool {
	return false
}

// VarRef is a line holding only a variable name. It reads the variable in
// the core.
type VarRef struct {
	source
	Name string
}

// TouchesMemory returns false.
func (VarRef) TouchesMemory() bool {
	return false
}

// Comment is a line starting with // or #. It never enters a Program.
type Comment struct {
	source
}

// TouchesMemory returns false.
func (Comment) TouchesMemory() bool {
	return false
}
