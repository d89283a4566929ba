package evaluator

import (
	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/diagnostics"
	"github.com/funvibe/funblocks/internal/env"
)

func (e *Evaluator) evalApp(node *ast.App, scope Env) (Value, error) {
	fn, err := e.eval(node.Fn, scope)
	if err != nil {
		return nil, err
	}
	spec, err := specOf(fn)
	if err != nil {
		return nil, err
	}
	args := node.Args
	if args == nil {
		args = &ast.Arguments{}
	}
	if err := spec.Accepts(len(args.Positional), args.KeywordNames()); err != nil {
		return nil, diagnostics.Prefix(err, calleeName(fn))
	}
	actual, err := e.evalArguments(args, scope)
	if err != nil {
		return nil, err
	}
	return e.apply(fn, actual)
}

// evalArguments evaluates positional arguments left to right, then
// keyword arguments in name order.
func (e *Evaluator) evalArguments(node *ast.Arguments, scope Env) (*Arguments, error) {
	out := &Arguments{Positional: make([]Value, 0, len(node.Positional))}
	for _, arg := range node.Positional {
		val, err := e.eval(arg, scope)
		if err != nil {
			return nil, err
		}
		out.Positional = append(out.Positional, val)
	}
	if len(node.Keyword) > 0 {
		out.Keyword = make(map[string]Value, len(node.Keyword))
		for _, kw := range node.KeywordNames() {
			val, err := e.eval(node.Keyword[kw], scope)
			if err != nil {
				return nil, err
			}
			out.Keyword[kw] = val
		}
	}
	return out, nil
}

// Apply calls fn with already evaluated arguments. A nil args is a call
// with no arguments.
func (e *Evaluator) Apply(fn Value, args *Arguments) (Value, error) {
	spec, err := specOf(fn)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = &Arguments{}
	}
	if err := spec.Accepts(len(args.Positional), sortedNames(args.Keyword)); err != nil {
		return nil, diagnostics.Prefix(err, calleeName(fn))
	}
	return e.apply(fn, args)
}

// apply assumes the arguments were accepted by the callee's spec.
func (e *Evaluator) apply(fn Value, args *Arguments) (Value, error) {
	if err := e.checkpoint(SiteApply); err != nil {
		return nil, err
	}
	switch fn := fn.(type) {
	case *Primitive:
		fixed := len(fn.Spec.Positional)
		val, err := fn.Builtin.Fn(args.Positional[:fixed], args.Positional[fixed:])
		if err != nil {
			return nil, diagnostics.Prefix(err, fn.Name)
		}
		return val, nil
	case *Closure:
		return e.eval(fn.Lambda.Body, bind(fn.Lambda.Spec, fn.Env, args))
	}
	return nil, notApplicable(fn)
}

// bind extends scope with positional, then rest, then keyword parameters.
func bind(spec *ast.ArgumentSpec, scope Env, args *Arguments) Env {
	local := env.NewPersistent[Value](scope)
	fixed := len(spec.Positional)
	for i, p := range spec.Positional {
		local = local.With(p.Name, args.Positional[i])
	}
	if spec.Rest != nil {
		local = local.With(spec.Rest.Name, ListFromSlice(args.Positional[fixed:]))
	}
	for _, kw := range spec.KeywordNames() {
		local = local.With(kw, args.Keyword[kw])
	}
	return local
}

func specOf(fn Value) (*ast.ArgumentSpec, error) {
	switch fn := fn.(type) {
	case *Primitive:
		return fn.Spec, nil
	case *Closure:
		return fn.Lambda.Spec, nil
	}
	return nil, notApplicable(fn)
}

func notApplicable(fn Value) error {
	return diagnostics.NewError(diagnostics.NotApplicable, "%s is not a procedure", fn.Inspect())
}

func calleeName(fn Value) string {
	switch fn := fn.(type) {
	case *Primitive:
		return fn.Name
	case *Closure:
		if fn.Lambda.Name != "" {
			return fn.Lambda.Name
		}
	}
	return "lambda"
}
