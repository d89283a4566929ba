package backend

import (
	"fmt"

	"github.com/funvibe/funblocks/internal/evaluator"
	"github.com/funvibe/funblocks/internal/pipeline"
)

// TreeWalkBackend wraps the tree-walk interpreter
type TreeWalkBackend struct {
	opts []evaluator.Option
}

// NewTreeWalk creates a tree-walk backend. The options configure the
// evaluator created when the context does not carry one.
func NewTreeWalk(opts ...evaluator.Option) *TreeWalkBackend {
	return &TreeWalkBackend{opts: opts}
}

func (b *TreeWalkBackend) Name() string { return "tree-walk" }

// Run evaluates ctx.Expr in the context's evaluator.
func (b *TreeWalkBackend) Run(ctx *pipeline.PipelineContext) (evaluator.Value, error) {
	if ctx.Expr == nil {
		return nil, fmt.Errorf("no expression to execute")
	}
	if ctx.Failed() {
		return nil, ctx.Errors[0]
	}
	if ctx.Evaluator == nil {
		ctx.Evaluator = evaluator.New(b.opts...)
	}
	return ctx.Evaluator.Eval(ctx.Expr)
}
