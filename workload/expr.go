package workload

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// An Expr is the right-hand side of an assignment.
type Expr interface {
	Eval(vars map[string]Value) (Value, error)
	String() string
}

// IntLit is an integer constant.
type IntLit int64

// Eval returns the constant.
func (l IntLit) Eval(map[string]Value) (Value, error) {
	return IntValue(int64(l)), nil
}

func (l IntLit) String() string {
	return strconv.FormatInt(int64(l), 10)
}

// StringLit is a quoted string constant.
type StringLit string

// Eval returns the constant.
func (l StringLit) Eval(map[string]Value) (Value, error) {
	return StringValue(string(l)), nil
}

func (l StringLit) String() string {
	return strconv.Quote(string(l))
}

// VarExpr reads a variable assigned by an earlier line.
type VarExpr string

// Eval looks the variable up.
func (v VarExpr) Eval(vars map[string]Value) (Value, error) {
	value, ok := vars[string(v)]
	if !ok {
		return Value{}, fmt.Errorf("undefined variable %q", string(v))
	}

	return value, nil
}

func (v VarExpr) String() string {
	return string(v)
}

// NegExpr is a unary minus.
type NegExpr struct {
	X Expr
}

// Eval negates the operand.
func (n NegExpr) Eval(vars map[string]Value) (Value, error) {
	x, err := n.X.Eval(vars)
	if err != nil {
		return Value{}, err
	}

	if x.IsString {
		return Value{}, fmt.Errorf("cannot negate a string")
	}

	return IntValue(-x.Int), nil
}

func (n NegExpr) String() string {
	return "-" + n.X.String()
}

// BinaryExpr is one of + - * /. Division truncates toward zero. Two strings
// can only be joined with +.
type BinaryExpr struct {
	Op   byte
	X, Y Expr
}

// Eval evaluates both operands, left first.
func (b BinaryExpr) Eval(vars map[string]Value) (Value, error) {
	x, err := b.X.Eval(vars)
	if err != nil {
		return Value{}, err
	}

	y, err := b.Y.Eval(vars)
	if err != nil {
		return Value{}, err
	}

	if x.IsString || y.IsString {
		if x.IsString && y.IsString && b.Op == '+' {
			return StringValue(x.Str + y.Str), nil
		}

		return Value{}, fmt.Errorf("cannot apply %c to %s and %s",
			b.Op, x.kind(), y.kind())
	}

	switch b.Op {
	case '+':
		return IntValue(x.Int + y.Int), nil
	case '-':
		return IntValue(x.Int - y.Int), nil
	case '*':
		return IntValue(x.Int * y.Int), nil
	case '/':
		if y.Int == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}

		return IntValue(x.Int / y.Int), nil
	}

	return Value{}, fmt.Errorf("unknown operator %q", b.Op)
}

func (b BinaryExpr) String() string {
	return fmt.Sprintf("(%s %c %s)", b.X, b.Op, b.Y)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokString
)

type token struct {
	kind  tokenKind
	text  string
	value int64
}

func tokenize(s string) ([]token, error) {
	var tokens []token

	for i := 0; i < len(s); {
		c := rune(s[i])

		switch {
		case unicode.IsSpace(c):
			i++
		case strings.ContainsRune("+-*/()", c):
			tokens = append(tokens, token{kind: tokOp, text: string(c)})
			i++
		case c == '"' || c == '\'':
			text, n, err := scanString(s[i:])
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, token{kind: tokString, text: text})
			i += n
		case unicode.IsDigit(c):
			j := i
			for j < len(s) && isIdentRune(rune(s[j])) {
				j++
			}

			value, err := parseInt(s[i:j])
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, token{kind: tokNumber, text: s[i:j], value: value})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(s) && isIdentRune(rune(s[j])) {
				j++
			}

			tokens = append(tokens, token{kind: tokIdent, text: s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}

	return append(tokens, token{kind: tokEOF}), nil
}

// scanString reads a quoted string at the start of s. A backslash takes the
// next character literally. It returns the content and the bytes consumed.
func scanString(s string) (string, int, error) {
	quote := s[0]

	var b strings.Builder

	for i := 1; i < len(s); i++ {
		switch s[i] {
		case quote:
			return b.String(), i + 1, nil
		case '\\':
			if i+1 < len(s) {
				i++
			}
		}

		b.WriteByte(s[i])
	}

	return "", 0, fmt.Errorf("unterminated string")
}

type exprParser struct {
	tokens []token
	pos    int
}

// ParseExpr parses the right-hand side of an assignment.
func ParseExpr(s string) (Expr, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}

	p := &exprParser{tokens: tokens}

	e, err := p.sum()
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q", t.text)
	}

	return e, nil
}

func (p *exprParser) peek() token {
	return p.tokens[p.pos]
}

func (p *exprParser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}

	return t
}

func (p *exprParser) acceptOp(ops string) (byte, bool) {
	t := p.peek()
	if t.kind == tokOp && strings.Contains(ops, t.text) {
		p.pos++
		return t.text[0], true
	}

	return 0, false
}

func (p *exprParser) sum() (Expr, error) {
	x, err := p.product()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.acceptOp("+-")
		if !ok {
			return x, nil
		}

		y, err := p.product()
		if err != nil {
			return nil, err
		}

		x = BinaryExpr{Op: op, X: x, Y: y}
	}
}

func (p *exprParser) product() (Expr, error) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.acceptOp("*/")
		if !ok {
			return x, nil
		}

		y, err := p.unary()
		if err != nil {
			return nil, err
		}

		x = BinaryExpr{Op: op, X: x, Y: y}
	}
}

func (p *exprParser) unary() (Expr, error) {
	if op, ok := p.acceptOp("+-"); ok {
		x, err := p.unary()
		if err != nil {
			return nil, err
		}

		if op == '-' {
			return NegExpr{X: x}, nil
		}

		return x, nil
	}

	return p.primary()
}

func (p *exprParser) primary() (Expr, error) {
	t := p.next()

	switch t.kind {
	case tokNumber:
		return IntLit(t.value), nil
	case tokIdent:
		return VarExpr(t.text), nil
	case tokString:
		return StringLit(t.text), nil
	case tokOp:
		if t.text != "(" {
			return nil, fmt.Errorf("unexpected %q", t.text)
		}

		e, err := p.sum()
		if err != nil {
			return nil, err
		}

		if _, ok := p.acceptOp(")"); !ok {
			return nil, fmt.Errorf("missing )")
		}

		return e, nil
	}

	return nil, fmt.Errorf("unexpected end of expression")
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentRune(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 && !isIdentStart(c) {
			return false
		}

		if !isIdentRune(c) {
			return false
		}
	}

	return true
}

// parseInt accepts decimal and 0x-prefixed hexadecimal.
func parseInt(s string) (int64, error) {
	neg := false

	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	var (
		u   uint64
		err error
	)

	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		u, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		u, err = strconv.ParseUint(s, 10, 64)
	}

	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}

	if u > 1<<63 || (u == 1<<63 && !neg) {
		return 0, fmt.Errorf("number %q out of range", s)
	}

	if neg {
		return -int64(u), nil
	}

	return int64(u), nil
}
