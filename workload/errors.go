package workload

import "fmt"

// A ParseError reports a trace line that is not a valid instruction.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %q: %s", e.Line, e.Text, e.Reason)
}

// An ExecError reports an instruction that parsed but could not run, such
// as a read of an undefined variable.
type ExecError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("line %d: %q: %s", e.Line, e.Text, e.Reason)
}
