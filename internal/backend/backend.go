// Package backend runs checked expressions and example blocks.
package backend

import (
	"github.com/funvibe/funblocks/internal/evaluator"
	"github.com/funvibe/funblocks/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run evaluates the expression in the pipeline context
	Run(ctx *pipeline.PipelineContext) (evaluator.Value, error)

	// Name returns the backend name for display
	Name() string
}
