// Package analyzer implements whole-program structural type checking of
// complete expressions.
//
// The checker is bidirectional in a simple sense: every node is checked
// against an expected type pushed down from its context and returns the
// principal of that expectation and what the node actually produces.
// Unknown is the expectation of nodes with no context.
package analyzer

import (
	"log/slog"

	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/diagnostics"
	"github.com/funvibe/funblocks/internal/env"
	"github.com/funvibe/funblocks/internal/evaluator"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// TypeEnv binds local names to their declared types.
type TypeEnv = env.Environment[typesystem.Type]

// Checker typechecks expressions against the values bound in globals.
type Checker struct {
	globals evaluator.Env
	rules   map[string]appRule
	logger  *slog.Logger
}

type Option func(*Checker)

func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// New creates a checker. Names that are not bound locally resolve to the
// type of their value in globals.
func New(globals evaluator.Env, opts ...Option) *Checker {
	c := &Checker{globals: globals, logger: slog.Default()}
	c.rules = listRules()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check returns the principal type of expr under expected, or the first
// failure found.
func (c *Checker) Check(expr ast.Expression, expected typesystem.Type) (typesystem.Type, error) {
	if expected == nil {
		expected = typesystem.Unknown{}
	}
	t, err := c.check(expr, expected, env.NewPersistent[typesystem.Type](nil))
	if err != nil {
		c.logger.Debug("type check failed", "expr", expr.String(), "error", err)
		return nil, err
	}
	c.logger.Debug("type inference completed", "expr", expr.String(), "type", t.String())
	return t, nil
}

func (c *Checker) check(expr ast.Expression, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	t, err := c.checkNode(expr, expected, scope)
	if err != nil {
		if expr != nil && expr.Origin() != "" {
			err = diagnostics.Locate(err, expr.Origin(), "")
		}
		return nil, err
	}
	return t, nil
}

func (c *Checker) checkNode(expr ast.Expression, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	switch node := expr.(type) {
	case *ast.Num:
		return expect(typesystem.Number{}, expected)
	case *ast.Str:
		return expect(typesystem.String{}, expected)
	case *ast.Char:
		return expect(typesystem.Character{}, expected)
	case *ast.Boolean:
		return expect(typesystem.Boolean{}, expected)
	case *ast.Empty:
		return expect(typesystem.List{Element: typesystem.Unknown{}}, expected)
	case *ast.Pair:
		return c.checkList(node, expected, scope)
	case *ast.Name:
		t, err := c.lookup(node.Value, scope)
		if err != nil {
			return nil, err
		}
		return expect(t, expected)
	case *ast.Primitive:
		ret := node.Return
		if ret == nil {
			ret = typesystem.Unknown{}
		}
		return expect(typesystem.Func(node.Spec.Type(), ret), expected)
	case *ast.Lambda:
		return c.checkLambda(node, expected, scope)
	case *ast.Cond:
		return c.checkCond(node, expected, scope)
	case *ast.If:
		return c.checkIf(node, expected, scope)
	case *ast.And:
		return c.checkBooleanForm(node.Args, expected, scope)
	case *ast.Or:
		return c.checkBooleanForm(node.Args, expected, scope)
	case *ast.App:
		return c.checkApp(node, expected, scope)
	case *ast.ArgumentSpec:
		return expect(node.Type(), expected)
	case *ast.Arguments:
		types := make([]typesystem.Type, 0, len(node.Positional))
		for _, arg := range node.Positional {
			t, err := c.check(arg, typesystem.Unknown{}, scope)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
		return expect(typesystem.Tuple(types...), expected)
	case nil:
		return nil, diagnostics.NewError(diagnostics.IncompleteProgram, "missing expression")
	}
	return nil, diagnostics.NewError(diagnostics.TypeMismatch, "cannot typecheck %T", expr)
}

// expect joins actual with the expected type, failing when they do not match.
func expect(actual, expected typesystem.Type) (typesystem.Type, error) {
	return typesystem.Principal(expected, actual)
}

func (c *Checker) lookup(name string, scope TypeEnv) (typesystem.Type, error) {
	if t, ok := scope.Lookup(name); ok {
		return t, nil
	}
	if c.globals != nil {
		if v, ok := c.globals.Lookup(name); ok {
			return TypeOfValue(v), nil
		}
	}
	return nil, diagnostics.NewError(diagnostics.UnboundName, "%s is not bound", name)
}

// checkList threads one element type through a Pair chain. The first
// element anchors it and every later element must match.
func (c *Checker) checkList(node *ast.Pair, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	elem, ok := typesystem.ElementOf(expected)
	if !ok {
		return nil, typesystem.NewMismatchError(expected, typesystem.List{Element: typesystem.Unknown{}})
	}
	var cur ast.Expression = node
	for {
		switch cell := cur.(type) {
		case *ast.Pair:
			t, err := c.check(cell.Car, elem, scope)
			if err != nil {
				return nil, err
			}
			if elem, err = typesystem.Principal(elem, t); err != nil {
				return nil, err
			}
			cur = cell.Cdr
		case *ast.Empty:
			return typesystem.List{Element: elem}, nil
		default:
			return nil, diagnostics.NewError(diagnostics.MalformedList, "list does not end in empty: %s", node)
		}
	}
}

func (c *Checker) checkLambda(node *ast.Lambda, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	local := scope
	for _, p := range node.Spec.Positional {
		local = local.Extend(p.Name, declared(p.Type))
	}
	if node.Spec.Rest != nil {
		local = local.Extend(node.Spec.Rest.Name, typesystem.List{Element: declared(node.Spec.Rest.Type)})
	}
	for _, kw := range node.Spec.KeywordNames() {
		local = local.Extend(kw, declared(node.Spec.Keyword[kw]))
	}
	body, err := c.check(node.Body, declared(node.Return), local)
	if err != nil {
		return nil, err
	}
	return expect(typesystem.Func(node.Spec.Type(), body), expected)
}

func (c *Checker) checkCond(node *ast.Cond, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	answer := expected
	for _, clause := range node.Clauses {
		if _, err := c.check(clause.Test, typesystem.Boolean{}, scope); err != nil {
			return nil, err
		}
		t, err := c.check(clause.Body, answer, scope)
		if err != nil {
			return nil, err
		}
		if answer, err = typesystem.Principal(answer, t); err != nil {
			return nil, err
		}
	}
	if node.Else != nil {
		t, err := c.check(node.Else, answer, scope)
		if err != nil {
			return nil, err
		}
		return typesystem.Principal(answer, t)
	}
	return answer, nil
}

func (c *Checker) checkIf(node *ast.If, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	if _, err := c.check(node.Test, typesystem.Boolean{}, scope); err != nil {
		return nil, err
	}
	then, err := c.check(node.Then, expected, scope)
	if err != nil {
		return nil, err
	}
	answer, err := typesystem.Principal(expected, then)
	if err != nil {
		return nil, err
	}
	alt, err := c.check(node.Else, answer, scope)
	if err != nil {
		return nil, err
	}
	return typesystem.Principal(answer, alt)
}

func (c *Checker) checkBooleanForm(args []ast.Expression, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	for _, arg := range args {
		if _, err := c.check(arg, typesystem.Boolean{}, scope); err != nil {
			return nil, err
		}
	}
	return expect(typesystem.Boolean{}, expected)
}

func declared(t typesystem.Type) typesystem.Type {
	if t == nil {
		return typesystem.Unknown{}
	}
	return t
}
