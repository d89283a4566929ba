package evaluator

import (
	"context"
	"log/slog"

	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/diagnostics"
	"github.com/funvibe/funblocks/internal/env"
)

// Evaluator is a strict tree-walking interpreter. It owns the builtin and
// top-level scopes; local scopes are persistent environments created per
// application.
type Evaluator struct {
	builtins *env.Mutable[Value]
	globals  *env.Mutable[Value]

	// Interrupter is consulted at every application and loop step.
	Interrupter Interrupter
	// MaxDepth bounds nested evaluation.
	MaxDepth int

	logger    *slog.Logger
	evalDepth int
}

type Option func(*Evaluator)

func WithInterrupter(i Interrupter) Option {
	return func(e *Evaluator) { e.Interrupter = Interrupters{e.Interrupter, i} }
}

// WithContext stops evaluation once ctx is done.
func WithContext(ctx context.Context) Option {
	return WithInterrupter(&ContextInterrupter{Context: ctx})
}

func WithMaxDepth(n int) Option {
	return func(e *Evaluator) { e.MaxDepth = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// WithBuiltins registers extra primitives before the builtin scope is frozen.
func WithBuiltins(prims ...*ast.Primitive) Option {
	return func(e *Evaluator) {
		for _, p := range prims {
			if err := e.AddBuiltin(p.Name, p); err != nil {
				e.logger.Warn("builtin not installed", "name", p.Name, "error", err)
			}
		}
	}
}

// New creates an evaluator with the standard library installed. Options
// run before the builtin scope is frozen.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		builtins: env.NewMutable[Value](nil),
		MaxDepth: config.MaxEvalDepth,
		logger:   slog.Default(),
	}
	installStdlib(e)
	for _, opt := range opts {
		opt(e)
	}
	e.builtins.Freeze()
	e.globals = env.NewMutable[Value](e.builtins)
	e.logger.Debug("evaluator ready", "builtins", len(e.builtins.AllBoundNames()))
	return e
}

// AddBuiltin binds a primitive in the builtin scope. Rebinding a builtin or
// adding one after construction fails.
func (e *Evaluator) AddBuiltin(name string, p *ast.Primitive) error {
	if e.builtins.Has(name) {
		return newError("trying to change builtin binding %s", name)
	}
	b, ok := p.Impl.(*Builtin)
	if !ok {
		return newError("primitive %s has no native implementation", name)
	}
	return e.builtins.Bind(name, &Primitive{Name: name, Spec: p.Spec, Builtin: b, Source: p})
}

// Globals is the top-level scope, backed by the builtins.
func (e *Evaluator) Globals() Env {
	return e.globals
}

// Builtin looks up a name in the builtin scope only.
func (e *Evaluator) Builtin(name string) (Value, bool) {
	if !e.builtins.Has(name) {
		return nil, false
	}
	return e.builtins.Lookup(name)
}

// Define evaluates expr and binds it at top level.
func (e *Evaluator) Define(name string, expr ast.Expression) (Value, error) {
	val, err := e.Eval(expr)
	if err != nil {
		return nil, err
	}
	if c, ok := val.(*Closure); ok && c.Lambda.Name == "" {
		named := *c.Lambda
		named.Name = name
		val = &Closure{Lambda: &named, Env: c.Env}
	}
	if err := e.globals.Bind(name, val); err != nil {
		return nil, diagnostics.NewError(diagnostics.RuntimeFailure, "define %s: %s", name, err)
	}
	e.logger.Debug("top-level binding", "name", name, "value", val.Inspect())
	return val, nil
}

// Eval evaluates a complete expression in the top-level scope.
func (e *Evaluator) Eval(expr ast.Expression) (Value, error) {
	if r, ok := e.Interrupter.(resetter); ok {
		r.Reset()
	}
	e.evalDepth = 0
	return e.eval(expr, e.globals)
}

// EvalIn evaluates expr in scope.
func (e *Evaluator) EvalIn(expr ast.Expression, scope Env) (Value, error) {
	return e.eval(expr, scope)
}

func (e *Evaluator) eval(node ast.Expression, scope Env) (Value, error) {
	e.evalDepth++
	defer func() { e.evalDepth-- }()
	if e.MaxDepth > 0 && e.evalDepth > e.MaxDepth {
		return nil, locate(diagnostics.NewError(diagnostics.Interrupted, "maximum recursion depth exceeded"), node)
	}

	val, err := e.evalNode(node, scope)
	if err != nil {
		return nil, locate(err, node)
	}
	return val, nil
}

func (e *Evaluator) evalNode(node ast.Expression, scope Env) (Value, error) {
	switch node := node.(type) {
	case *ast.Num:
		return &Num{Value: node.Value}, nil
	case *ast.Str:
		return &Str{Value: node.Value}, nil
	case *ast.Char:
		return &Char{Value: node.Value}, nil
	case *ast.Boolean:
		return nativeBool(node.Value), nil
	case *ast.Empty:
		return EMPTY, nil
	case *ast.Pair:
		return e.evalPair(node, scope)
	case *ast.Name:
		if val, ok := scope.Lookup(node.Value); ok {
			return val, nil
		}
		return nil, diagnostics.NewError(diagnostics.UnboundName, "%s is not bound", node.Value)
	case *ast.Primitive:
		b, ok := node.Impl.(*Builtin)
		if !ok {
			return nil, newError("primitive %s has no native implementation", node.Name)
		}
		return &Primitive{Name: node.Name, Spec: node.Spec, Builtin: b, Source: node}, nil
	case *ast.Lambda:
		return &Closure{Lambda: node, Env: scope}, nil
	case *ast.Cond:
		return e.evalCond(node, scope)
	case *ast.If:
		return e.evalIf(node, scope)
	case *ast.And:
		return e.evalAnd(node, scope)
	case *ast.Or:
		return e.evalOr(node, scope)
	case *ast.App:
		return e.evalApp(node, scope)
	case *ast.ArgumentSpec:
		return &ArgumentSpec{Spec: node}, nil
	case *ast.Arguments:
		return e.evalArguments(node, scope)
	case nil:
		return nil, diagnostics.NewError(diagnostics.IncompleteProgram, "missing expression")
	}
	return nil, newError("cannot evaluate %T", node)
}

func (e *Evaluator) evalPair(node *ast.Pair, scope Env) (Value, error) {
	car, err := e.eval(node.Car, scope)
	if err != nil {
		return nil, err
	}
	cdr, err := e.eval(node.Cdr, scope)
	if err != nil {
		return nil, err
	}
	return &Pair{Car: car, Cdr: cdr}, nil
}

func locate(err error, node ast.Expression) error {
	if node == nil || node.Origin() == "" {
		return err
	}
	return diagnostics.Locate(err, node.Origin(), "")
}
