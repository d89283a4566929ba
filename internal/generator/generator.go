// Package generator compiles block-graph nodes into expressions.
package generator

import (
	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/diagnostics"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// Generate compiles node and its connected children. An unfilled slot
// fails with IncompleteProgram located at the slot's owner and input.
func Generate(node blocks.Node) (ast.Expression, error) {
	if node == nil {
		return nil, diagnostics.NewError(diagnostics.IncompleteProgram, "no block to generate")
	}
	at := ast.Located{NodeID: node.ID()}
	meta := node.Meta()

	switch node.Shape() {
	case blocks.ShapeNumber, blocks.ShapeCharacter, blocks.ShapeBoolean, blocks.ShapeString:
		return literal(node)
	case blocks.ShapeEmpty:
		return &ast.Empty{Located: at}, nil
	case blocks.ShapeArgument:
		return &ast.Name{Located: at, Value: meta.Name}, nil
	case blocks.ShapeCons:
		return call(node, config.ConsFuncName, config.CarInput, config.CdrInput)
	case blocks.ShapeFirst:
		return call(node, config.FirstFuncName, config.ListArgInput)
	case blocks.ShapeRest:
		return call(node, config.RestFuncName, config.ListArgInput)
	case blocks.ShapeList:
		elems, err := children(node, restNames(meta.RestCount)...)
		if err != nil {
			return nil, err
		}
		var out ast.Expression = &ast.Empty{Located: at}
		for i := len(elems) - 1; i >= 0; i-- {
			out = &ast.Pair{Located: at, Car: elems[i], Cdr: out}
		}
		return out, nil
	case blocks.ShapeApp:
		if meta.Callee == nil {
			return nil, diagnostics.NewError(diagnostics.NotApplicable, "app block has no callee").At(node.ID(), "")
		}
		names := make([]string, 0, len(node.Inputs()))
		for _, in := range node.Inputs() {
			names = append(names, in.Name)
		}
		return call(node, meta.Callee.Name, names...)
	case blocks.ShapeIf:
		parts, err := children(node, config.PredInput, config.ThenInput, config.ElseExprInput)
		if err != nil {
			return nil, err
		}
		return &ast.If{Located: at, Test: parts[0], Then: parts[1], Else: parts[2]}, nil
	case blocks.ShapeCond:
		return cond(node)
	case blocks.ShapeAnd:
		args, err := children(node, restNames(meta.RestCount)...)
		if err != nil {
			return nil, err
		}
		return &ast.And{Located: at, Args: args}, nil
	case blocks.ShapeOr:
		args, err := children(node, restNames(meta.RestCount)...)
		if err != nil {
			return nil, err
		}
		return &ast.Or{Located: at, Args: args}, nil
	case blocks.ShapeExample:
		return nil, diagnostics.NewError(diagnostics.NotApplicable, "example blocks are statements; use GenerateExample").At(node.ID(), "")
	}
	return nil, diagnostics.NewError(diagnostics.NotApplicable, "cannot generate %s block", node.Shape()).At(node.ID(), "")
}

// GenerateExample compiles both sides of an example block.
func GenerateExample(node blocks.Node) (expr, want ast.Expression, err error) {
	if node == nil || node.Shape() != blocks.ShapeExample {
		return nil, nil, diagnostics.NewError(diagnostics.NotApplicable, "not an example block")
	}
	parts, err := children(node, config.ExprInput, config.ResultInput)
	if err != nil {
		return nil, nil, err
	}
	return parts[0], parts[1], nil
}

// GenerateFunction compiles a function body into a named lambda. Argument
// blocks in the body must name one of the parameters.
func GenerateFunction(name string, spec *ast.ArgumentSpec, ret typesystem.Type, body blocks.Node) (*ast.Lambda, error) {
	if body == nil {
		return nil, diagnostics.NewError(diagnostics.IncompleteProgram, "function %s has no body", name)
	}
	params := make(map[string]bool, len(spec.Positional))
	for _, p := range spec.Positional {
		params[p.Name] = true
	}
	var stray blocks.Node
	blocks.Walk(body, func(n blocks.Node) {
		if stray == nil && n.Shape() == blocks.ShapeArgument && !params[n.Meta().Name] {
			stray = n
		}
	})
	if stray != nil {
		return nil, diagnostics.NewError(diagnostics.UnboundName, "%s is not a parameter of %s", stray.Meta().Name, name).At(stray.ID(), "")
	}
	expr, err := Generate(body)
	if err != nil {
		return nil, err
	}
	return &ast.Lambda{
		Located: ast.Located{NodeID: body.ID()},
		Name:    name,
		Spec:    spec,
		Body:    expr,
		Return:  ret,
	}, nil
}

// HasHoles reports whether any slot under node is unfilled, including
// literal blocks whose value has not been entered.
func HasHoles(node blocks.Node) bool {
	if node == nil {
		return true
	}
	holes := false
	blocks.Walk(node, func(n blocks.Node) {
		if missingLiteral(n) {
			holes = true
		}
		for _, in := range n.Inputs() {
			if n.Child(in.Name) == nil {
				holes = true
			}
		}
	})
	return holes
}

func missingLiteral(n blocks.Node) bool {
	return n.Shape().IsLiteral() && n.Shape() != blocks.ShapeString && n.Meta().Literal == ""
}

func literal(node blocks.Node) (ast.Expression, error) {
	if missingLiteral(node) {
		return nil, diagnostics.NewError(diagnostics.IncompleteProgram, "%s block has no value", node.Shape()).At(node.ID(), "")
	}
	expr, err := blocks.ParseLiteral(node.Shape(), node.Meta().Literal)
	if err != nil {
		return nil, diagnostics.NewError(diagnostics.TypeMismatch, "%v", err).At(node.ID(), "")
	}
	switch lit := expr.(type) {
	case *ast.Num:
		lit.NodeID = node.ID()
	case *ast.Str:
		lit.NodeID = node.ID()
	case *ast.Char:
		lit.NodeID = node.ID()
	case *ast.Boolean:
		lit.NodeID = node.ID()
	}
	return expr, nil
}

func call(node blocks.Node, fn string, inputs ...string) (ast.Expression, error) {
	args, err := children(node, inputs...)
	if err != nil {
		return nil, err
	}
	at := ast.Located{NodeID: node.ID()}
	return &ast.App{
		Located: at,
		Fn:      &ast.Name{Located: at, Value: fn},
		Args:    &ast.Arguments{Located: at, Positional: args},
	}, nil
}

func cond(node blocks.Node) (ast.Expression, error) {
	meta := node.Meta()
	out := &ast.Cond{Located: ast.Located{NodeID: node.ID()}}
	for i := 0; i < meta.ClauseCount; i++ {
		parts, err := children(node, blocks.ConditionInput(i), blocks.BodyInput(i))
		if err != nil {
			return nil, err
		}
		out.Clauses = append(out.Clauses, &ast.CondClause{Test: parts[0], Body: parts[1]})
	}
	if meta.HasElse {
		parts, err := children(node, config.ElseInput)
		if err != nil {
			return nil, err
		}
		out.Else = parts[0]
	}
	return out, nil
}

// children generates the blocks plugged into the named inputs, in order.
func children(node blocks.Node, inputs ...string) ([]ast.Expression, error) {
	out := make([]ast.Expression, 0, len(inputs))
	for _, name := range inputs {
		child := node.Child(name)
		if child == nil {
			return nil, diagnostics.NewError(diagnostics.IncompleteProgram, "input %s is empty", name).At(node.ID(), name)
		}
		expr, err := Generate(child)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func restNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = blocks.RestArgInput(i)
	}
	return names
}
