package evaluator

import (
	"strconv"
	"strings"

	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/env"
)

type ValueKind string

const (
	PAIR_VAL          = "PAIR"
	EMPTY_VAL         = "EMPTY"
	BOOLEAN_VAL       = "BOOLEAN"
	NUM_VAL           = "NUM"
	STR_VAL           = "STR"
	CHAR_VAL          = "CHAR"
	PRIMITIVE_VAL     = "PRIMITIVE"
	CLOSURE_VAL       = "CLOSURE"
	ARGUMENT_SPEC_VAL = "ARGUMENT_SPEC"
	ARGUMENTS_VAL     = "ARGUMENTS"
)

// Value is the result of evaluation.
type Value interface {
	Kind() ValueKind
	Inspect() string
}

// Env is the environment type of the evaluator.
type Env = env.Environment[Value]

type Pair struct {
	Car Value
	Cdr Value
}

type Empty struct{}

type Boolean struct {
	Value bool
}

type Num struct {
	Value float64
}

type Str struct {
	Value string
}

type Char struct {
	Value rune
}

// Primitive is a host function value.
type Primitive struct {
	Name    string
	Spec    *ast.ArgumentSpec
	Builtin *Builtin
	Source  *ast.Primitive
}

// Closure is a lambda together with the scope it was created in.
type Closure struct {
	Lambda *ast.Lambda
	Env    Env
}

// ArgumentSpec is a formal parameter shape used as a value.
type ArgumentSpec struct {
	Spec *ast.ArgumentSpec
}

// Arguments are evaluated actual arguments.
type Arguments struct {
	Positional []Value
	Keyword    map[string]Value
}

var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	EMPTY = &Empty{}
)

func (p *Pair) Kind() ValueKind         { return PAIR_VAL }
func (e *Empty) Kind() ValueKind        { return EMPTY_VAL }
func (b *Boolean) Kind() ValueKind      { return BOOLEAN_VAL }
func (n *Num) Kind() ValueKind          { return NUM_VAL }
func (s *Str) Kind() ValueKind          { return STR_VAL }
func (c *Char) Kind() ValueKind         { return CHAR_VAL }
func (p *Primitive) Kind() ValueKind    { return PRIMITIVE_VAL }
func (c *Closure) Kind() ValueKind      { return CLOSURE_VAL }
func (a *ArgumentSpec) Kind() ValueKind { return ARGUMENT_SPEC_VAL }
func (a *Arguments) Kind() ValueKind    { return ARGUMENTS_VAL }

func (p *Pair) Inspect() string {
	var out strings.Builder
	out.WriteString("(")
	var cur Value = p
	first := true
	for {
		cell, ok := cur.(*Pair)
		if !ok {
			break
		}
		if !first {
			out.WriteString(" ")
		}
		first = false
		out.WriteString(cell.Car.Inspect())
		cur = cell.Cdr
	}
	if _, ok := cur.(*Empty); !ok {
		out.WriteString(" . ")
		out.WriteString(cur.Inspect())
	}
	out.WriteString(")")
	return out.String()
}

func (e *Empty) Inspect() string        { return "()" }
func (b *Boolean) Inspect() string      { return ast.FormatBool(b.Value) }
func (n *Num) Inspect() string          { return ast.FormatNumber(n.Value) }
func (s *Str) Inspect() string          { return strconv.Quote(s.Value) }
func (c *Char) Inspect() string         { return ast.FormatChar(c.Value) }
func (p *Primitive) Inspect() string    { return "#<procedure:" + p.Name + ">" }
func (a *ArgumentSpec) Inspect() string { return a.Spec.String() }

func (c *Closure) Inspect() string {
	if c.Lambda.Name != "" {
		return "#<procedure:" + c.Lambda.Name + ">"
	}
	return "#<procedure>"
}

func (a *Arguments) Inspect() string {
	parts := make([]string, 0, len(a.Positional)+len(a.Keyword))
	for _, v := range a.Positional {
		parts = append(parts, v.Inspect())
	}
	for _, kw := range sortedNames(a.Keyword) {
		parts = append(parts, "#:"+kw+" "+a.Keyword[kw].Inspect())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func nativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// isTruthy treats every value except #f as true.
func isTruthy(v Value) bool {
	b, ok := v.(*Boolean)
	return !ok || b.Value
}

// ListFromSlice builds a proper list.
func ListFromSlice(values []Value) Value {
	var out Value = EMPTY
	for i := len(values) - 1; i >= 0; i-- {
		out = &Pair{Car: values[i], Cdr: out}
	}
	return out
}

// SliceFromList flattens a proper list; ok is false for improper lists.
func SliceFromList(v Value) ([]Value, bool) {
	var out []Value
	for {
		switch cell := v.(type) {
		case *Empty:
			return out, true
		case *Pair:
			out = append(out, cell.Car)
			v = cell.Cdr
		default:
			return nil, false
		}
	}
}
