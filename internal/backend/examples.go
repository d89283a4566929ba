package backend

import (
	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/evaluator"
	"github.com/funvibe/funblocks/internal/generator"
	"github.com/funvibe/funblocks/internal/pipeline"
)

// ExampleResult is the outcome of one example block.
type ExampleResult struct {
	NodeID string
	Passed bool
	Got    evaluator.Value
	Want   evaluator.Value
	Err    error
}

// RunExamples evaluates both sides of every example block with b and
// compares them structurally. Blocks of other shapes are skipped.
func RunExamples(b Backend, e *evaluator.Evaluator, nodes []blocks.Node) []ExampleResult {
	var results []ExampleResult
	for _, n := range nodes {
		if n.Shape() != blocks.ShapeExample {
			continue
		}
		results = append(results, runExample(b, e, n))
	}
	return results
}

func runExample(b Backend, e *evaluator.Evaluator, n blocks.Node) ExampleResult {
	res := ExampleResult{NodeID: n.ID()}
	expr, want, err := generator.GenerateExample(n)
	if err != nil {
		res.Err = err
		return res
	}
	if res.Got, res.Err = evalSide(b, e, n.Child(config.ExprInput), expr); res.Err != nil {
		return res
	}
	if res.Want, res.Err = evalSide(b, e, n.Child(config.ResultInput), want); res.Err != nil {
		return res
	}
	res.Passed = evaluator.Equal(res.Got, res.Want)
	return res
}

func evalSide(b Backend, e *evaluator.Evaluator, side blocks.Node, expr ast.Expression) (evaluator.Value, error) {
	ctx := pipeline.NewContext(side, e)
	ctx.Expr = expr
	ctx = pipeline.New(NewExecutionProcessor(b)).Run(ctx)
	if ctx.Failed() {
		return nil, ctx.Errors[0]
	}
	return ctx.Value, nil
}
