package analyzer

import (
	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/diagnostics"
	"github.com/funvibe/funblocks/internal/evaluator"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// appRule types an application of a specific builtin more precisely than
// its declared signature allows.
type appRule func(c *Checker, args []ast.Expression, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error)

func (c *Checker) checkApp(node *ast.App, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	args := node.Args
	if args == nil {
		args = &ast.Arguments{}
	}
	if rule, ok := c.ruleFor(node.Fn, scope); ok && len(args.Keyword) == 0 {
		return rule(c, args.Positional, expected, scope)
	}

	fnType, err := c.check(node.Fn, typesystem.Unknown{}, scope)
	if err != nil {
		return nil, err
	}
	switch fn := fnType.(type) {
	case typesystem.Unknown:
		for _, arg := range args.Positional {
			if _, err := c.check(arg, typesystem.Unknown{}, scope); err != nil {
				return nil, err
			}
		}
		return expected, nil
	case typesystem.Function:
		if err := c.checkArguments(fn.Args, args, scope); err != nil {
			return nil, err
		}
		return expect(fn.Return, expected)
	}
	return nil, diagnostics.NewError(diagnostics.NotApplicable, "%s has type %s and cannot be applied", node.Fn, fnType)
}

// checkArguments checks positional arguments one to one, then the
// overflow against the rest element type.
func (c *Checker) checkArguments(want typesystem.Arguments, args *ast.Arguments, scope TypeEnv) error {
	fixed := want.Positional.Types
	switch {
	case len(args.Positional) < len(fixed):
		return diagnostics.NewError(diagnostics.ArityMismatch, "expects %d argument(s), got %d", len(fixed), len(args.Positional))
	case len(args.Positional) > len(fixed) && want.Rest == nil:
		return diagnostics.NewError(diagnostics.ArityMismatch, "expects %d argument(s), got %d", len(fixed), len(args.Positional))
	}
	for i, arg := range args.Positional {
		var target typesystem.Type
		if i < len(fixed) {
			target = fixed[i]
		} else {
			target = want.Rest.Element
		}
		if _, err := c.check(arg, target, scope); err != nil {
			return err
		}
	}
	for _, kw := range args.KeywordNames() {
		if _, err := c.check(args.Keyword[kw], typesystem.Unknown{}, scope); err != nil {
			return err
		}
	}
	return nil
}

// ruleFor returns the shape rule for fn when it names an unshadowed list builtin.
func (c *Checker) ruleFor(fn ast.Expression, scope TypeEnv) (appRule, bool) {
	name, ok := fn.(*ast.Name)
	if !ok {
		return nil, false
	}
	rule, ok := c.rules[name.Value]
	if !ok {
		return nil, false
	}
	if _, local := scope.Lookup(name.Value); local || c.globals == nil {
		return nil, false
	}
	v, ok := c.globals.Lookup(name.Value)
	if !ok {
		return nil, false
	}
	prim, ok := v.(*evaluator.Primitive)
	if !ok || prim.Name != name.Value {
		return nil, false
	}
	return rule, true
}

func listRules() map[string]appRule {
	return map[string]appRule{
		config.ConsFuncName:  checkCons,
		config.FirstFuncName: checkFirst,
		config.RestFuncName:  checkRest,
		config.ListFuncName:  checkListCall,
	}
}

func arity(name string, want int, args []ast.Expression) error {
	if len(args) != want {
		return diagnostics.NewError(diagnostics.ArityMismatch, "%s expects %d argument(s), got %d", name, want, len(args))
	}
	return nil
}

func listOf(t typesystem.Type) typesystem.Type {
	return typesystem.List{Element: t}
}

func elementOf(expected typesystem.Type) (typesystem.Type, error) {
	elem, ok := typesystem.ElementOf(expected)
	if !ok {
		return nil, typesystem.NewMismatchError(expected, listOf(typesystem.Unknown{}))
	}
	return elem, nil
}

// checkCons joins the element type with the car's type and checks the tail
// against a list of it.
func checkCons(c *Checker, args []ast.Expression, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	if err := arity(config.ConsFuncName, 2, args); err != nil {
		return nil, err
	}
	elem, err := elementOf(expected)
	if err != nil {
		return nil, err
	}
	car, err := c.check(args[0], elem, scope)
	if err != nil {
		return nil, err
	}
	cdr, err := c.check(args[1], listOf(car), scope)
	if err != nil {
		return nil, err
	}
	return typesystem.Principal(listOf(car), cdr)
}

func checkFirst(c *Checker, args []ast.Expression, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	if err := arity(config.FirstFuncName, 1, args); err != nil {
		return nil, err
	}
	list, err := c.check(args[0], listOf(expected), scope)
	if err != nil {
		return nil, err
	}
	return elementOf(list)
}

func checkRest(c *Checker, args []ast.Expression, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	if err := arity(config.RestFuncName, 1, args); err != nil {
		return nil, err
	}
	elem, err := elementOf(expected)
	if err != nil {
		return nil, err
	}
	return c.check(args[0], listOf(elem), scope)
}

func checkListCall(c *Checker, args []ast.Expression, expected typesystem.Type, scope TypeEnv) (typesystem.Type, error) {
	elem, err := elementOf(expected)
	if err != nil {
		return nil, err
	}
	for _, arg := range args {
		t, err := c.check(arg, elem, scope)
		if err != nil {
			return nil, err
		}
		if elem, err = typesystem.Principal(elem, t); err != nil {
			return nil, err
		}
	}
	return listOf(elem), nil
}
