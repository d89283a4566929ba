package ast

import (
	"strconv"
	"strings"
)

// Expression is an unevaluated program fragment. Origin names the block the
// node was generated from, or is empty for hand-built trees.
type Expression interface {
	expressionNode()
	String() string
	Origin() string
}

// Located is embedded by every node to carry its origin block ID.
type Located struct {
	NodeID string
}

func (l Located) Origin() string { return l.NodeID }

// Num is a numeric literal.
type Num struct {
	Located
	Value float64
}

type Char struct {
	Located
	Value rune
}

type Boolean struct {
	Located
	Value bool
}

type Str struct {
	Located
	Value string
}

// Empty is the empty list.
type Empty struct {
	Located
}

// Pair is a cons cell of a list literal.
type Pair struct {
	Located
	Car Expression
	Cdr Expression
}

// Name references a binding.
type Name struct {
	Located
	Value string
}

func (n *Num) expressionNode()     {}
func (c *Char) expressionNode()    {}
func (b *Boolean) expressionNode() {}
func (s *Str) expressionNode()     {}
func (e *Empty) expressionNode()   {}
func (p *Pair) expressionNode()    {}
func (n *Name) expressionNode()    {}

func (n *Num) String() string { return FormatNumber(n.Value) }

func (c *Char) String() string { return FormatChar(c.Value) }

func (b *Boolean) String() string { return FormatBool(b.Value) }

func (s *Str) String() string { return strconv.Quote(s.Value) }

func (e *Empty) String() string { return "empty" }

func (p *Pair) String() string {
	var out strings.Builder
	out.WriteString("(list")
	var cur Expression = p
	for {
		cell, ok := cur.(*Pair)
		if !ok {
			break
		}
		out.WriteString(" ")
		out.WriteString(cell.Car.String())
		cur = cell.Cdr
	}
	if _, ok := cur.(*Empty); !ok && cur != nil {
		out.WriteString(" . ")
		out.WriteString(cur.String())
	}
	out.WriteString(")")
	return out.String()
}

func (n *Name) String() string { return n.Value }

// FormatNumber prints integral numbers without a fraction.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func FormatChar(r rune) string {
	switch r {
	case ' ':
		return `#\space`
	case '\n':
		return `#\newline`
	}
	return `#\` + string(r)
}

func FormatBool(b bool) string {
	if b {
		return "#t"
	}
	return "#f"
}

// ListOf builds a Pair chain terminated by Empty.
func ListOf(elems ...Expression) Expression {
	var out Expression = &Empty{}
	for i := len(elems) - 1; i >= 0; i-- {
		out = &Pair{Car: elems[i], Cdr: out}
	}
	return out
}
