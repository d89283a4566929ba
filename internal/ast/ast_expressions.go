package ast

import (
	"strings"

	"github.com/funvibe/funblocks/internal/typesystem"
)

// Native is a host function carried by a Primitive. The evaluator supplies
// the implementations.
type Native interface {
	NativeName() string
}

// Primitive is a host-implemented callable.
type Primitive struct {
	Located
	Name   string
	Spec   *ArgumentSpec
	Impl   Native
	Return typesystem.Type
}

// Lambda evaluates to a closure over the current environment.
type Lambda struct {
	Located
	Name   string // optional, for printing
	Spec   *ArgumentSpec
	Body   Expression
	Return typesystem.Type
}

// CondClause is one test/answer pair of a Cond.
type CondClause struct {
	Test Expression
	Body Expression
}

// Cond tries its clauses in order. Else may be nil.
type Cond struct {
	Located
	Clauses []*CondClause
	Else    Expression
}

type If struct {
	Located
	Test Expression
	Then Expression
	Else Expression
}

type And struct {
	Located
	Args []Expression
}

type Or struct {
	Located
	Args []Expression
}

// App applies Fn to Args.
type App struct {
	Located
	Fn   Expression
	Args *Arguments
}

func (p *Primitive) expressionNode() {}
func (l *Lambda) expressionNode()    {}
func (c *Cond) expressionNode()      {}
func (i *If) expressionNode()        {}
func (a *And) expressionNode()       {}
func (o *Or) expressionNode()        {}
func (a *App) expressionNode()       {}

func (p *Primitive) String() string {
	return "#<primitive:" + p.Name + ">"
}

func (l *Lambda) String() string {
	return "(lambda " + l.Spec.String() + " " + l.Body.String() + ")"
}

func (c *Cond) String() string {
	var out strings.Builder
	out.WriteString("(cond")
	for _, clause := range c.Clauses {
		out.WriteString(" [" + clause.Test.String() + " " + clause.Body.String() + "]")
	}
	if c.Else != nil {
		out.WriteString(" [else " + c.Else.String() + "]")
	}
	out.WriteString(")")
	return out.String()
}

func (i *If) String() string {
	return "(if " + i.Test.String() + " " + i.Then.String() + " " + i.Else.String() + ")"
}

func (a *And) String() string { return form("and", a.Args) }

func (o *Or) String() string { return form("or", o.Args) }

func (a *App) String() string {
	args := a.Args.String()
	if args == "" {
		return "(" + a.Fn.String() + ")"
	}
	return "(" + a.Fn.String() + " " + args + ")"
}

func form(head string, args []Expression) string {
	parts := []string{head}
	for _, arg := range args {
		parts = append(parts, arg.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Call is a shorthand for applying a named function to positional arguments.
func Call(name string, args ...Expression) *App {
	return &App{Fn: &Name{Value: name}, Args: &Arguments{Positional: args}}
}
