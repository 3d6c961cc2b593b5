package workload

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/mem/mem"
)

var memOperand = regexp.MustCompile(`^([-+]?(?:0[xX][0-9a-fA-F]+|[0-9]+))?\(([xX][0-9]+)\)$`)

// Parse splits a trace into lines and parses each of them. Blank lines and
// comments are dropped. Lines that do not parse are reported and skipped,
// so the returned program holds every valid line.
func Parse(text string) (Program, []*ParseError) {
	var (
		program Program
		errs    []*ParseError
	)

	text = strings.ReplaceAll(text, "\r\n", "\n")

	for i, line := range strings.Split(text, "\n") {
		inst, err := ParseLine(i+1, line)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if inst == nil {
			continue
		}

		if _, ok := inst.(Comment); ok {
			continue
		}

		program = append(program, inst)
	}

	return program, errs
}

// ParseLine parses a single line. It returns a nil instruction and a nil
// error for a blank line.
func ParseLine(lineNo int, line string) (Instruction, *ParseError) {
	text := strings.TrimSpace(line)
	src := source{line: lineNo, text: text}

	fail := func(format string, args ...any) *ParseError {
		return &ParseError{
			Line:   lineNo,
			Text:   text,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	switch {
	case text == "":
		return nil, nil
	case strings.HasPrefix(text, "//"), strings.HasPrefix(text, "#"):
		return Comment{source: src}, nil
	case hasHexPrefix(text):
		return parseRawAddress(src, fail)
	}

	fields := splitOperands(text)
	mnemonic := strings.ToUpper(fields[0])

	switch mnemonic {
	case "VAR":
		return parseAssign(src, fail)
	case "ADD", "SUB":
		return parseRegOp(src, mnemonic, fields[1:], fail)
	case "ADDI":
		return parseAddi(src, fields[1:], fail)
	case "LW", "SW":
		return parseMemOp(src, mnemonic, fields[1:], fail)
	}

	if len(fields) == 1 && isIdent(text) {
		return VarRef{source: src, Name: text}, nil
	}

	return nil, fail("unknown instruction %q", fields[0])
}

func hasHexPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func splitOperands(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

type failFunc func(format string, args ...any) *ParseError

func parseRawAddress(src source, fail failFunc) (Instruction, *ParseError) {
	addr, err := strconv.ParseUint(src.text[2:], 16, 63)
	if err != nil {
		return nil, fail("invalid address")
	}

	return MemoryAccess{
		source: src,
		Kind:   mem.Load,
		Reg:    NoRegister,
		Base:   NoRegister,
		Offset: int64(addr),
	}, nil
}

func parseAssign(src source, fail failFunc) (Instruction, *ParseError) {
	rest := strings.TrimSpace(src.text[len("var"):])

	name, exprText, ok := strings.Cut(rest, "=")
	if !ok {
		return nil, fail("missing =")
	}

	name = strings.TrimSpace(name)
	if !isIdent(name) {
		return nil, fail("invalid variable name %q", name)
	}

	expr, err := ParseExpr(exprText)
	if err != nil {
		return nil, fail("%v", err)
	}

	return Assign{source: src, Name: name, Expr: expr}, nil
}

func parseRegOp(
	src source,
	mnemonic string,
	operands []string,
	fail failFunc,
) (Instruction, *ParseError) {
	if len(operands) != 3 {
		return nil, fail("%s takes 3 registers", mnemonic)
	}

	regs := make([]int, 3)
	for i, o := range operands {
		r, err := parseRegister(o)
		if err != nil {
			return nil, fail("%v", err)
		}

		regs[i] = r
	}

	op := OpAdd
	if mnemonic == "SUB" {
		op = OpSub
	}

	return AluOp{source: src, Op: op, Rd: regs[0], Rs1: regs[1], Rs2: regs[2]}, nil
}

func parseAddi(src source, operands []string, fail failFunc) (Instruction, *ParseError) {
	if len(operands) != 3 {
		return nil, fail("ADDI takes 2 registers and an immediate")
	}

	rd, err := parseRegister(operands[0])
	if err != nil {
		return nil, fail("%v", err)
	}

	rs1, err := parseRegister(operands[1])
	if err != nil {
		return nil, fail("%v", err)
	}

	imm, err := parseInt(operands[2])
	if err != nil {
		return nil, fail("%v", err)
	}

	if imm < math.MinInt32 || imm > math.MaxInt32 {
		return nil, fail("immediate %d does not fit in 32 bits", imm)
	}

	return AluOp{
		source: src,
		Op:     OpAddi,
		Rd:     rd,
		Rs1:    rs1,
		Imm:    int32(imm),
	}, nil
}

func parseMemOp(
	src source,
	mnemonic string,
	operands []string,
	fail failFunc,
) (Instruction, *ParseError) {
	if len(operands) < 2 {
		return nil, fail("%s takes a register and an offset(base) operand", mnemonic)
	}

	reg, err := parseRegister(operands[0])
	if err != nil {
		return nil, fail("%v", err)
	}

	operand := strings.Join(operands[1:], "")

	m := memOperand.FindStringSubmatch(operand)
	if m == nil {
		return nil, fail("invalid memory operand %q", operand)
	}

	var offset int64
	if m[1] != "" {
		offset, err = parseInt(m[1])
		if err != nil {
			return nil, fail("%v", err)
		}
	}

	base, err := parseRegister(m[2])
	if err != nil {
		return nil, fail("%v", err)
	}

	kind := mem.Load
	if mnemonic == "SW" {
		kind = mem.Store
	}

	return MemoryAccess{
		source: src,
		Kind:   kind,
		Reg:    reg,
		Base:   base,
		Offset: offset,
	}, nil
}

func parseRegister(s string) (int, error) {
	if len(s) < 2 || (s[0] != 'x' && s[0] != 'X') {
		return 0, fmt.Errorf("invalid register %q", s)
	}

	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 || n >= NumRegisters || s[1] == '+' || s[1] == '-' {
		return 0, fmt.Errorf("invalid register %q", s)
	}

	return n, nil
}
