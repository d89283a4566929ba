package pipeline

import (
	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/evaluator"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// Processor is one stage of a Pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries one root block through generation, checking and
// evaluation.
type PipelineContext struct {
	Root blocks.Node

	// Evaluator supplies the global scope for checking and running.
	Evaluator *evaluator.Evaluator

	// Expected is the type the root must have; nil means unconstrained.
	Expected typesystem.Type

	Expr   ast.Expression
	Type   typesystem.Type
	Value  evaluator.Value
	Errors []error
}

func NewContext(root blocks.Node, e *evaluator.Evaluator) *PipelineContext {
	return &PipelineContext{Root: root, Evaluator: e}
}

// Failed reports whether any stage recorded an error.
func (ctx *PipelineContext) Failed() bool {
	return len(ctx.Errors) > 0
}
