package pipeline

import (
	"log/slog"

	"github.com/funvibe/funblocks/internal/analyzer"
	"github.com/funvibe/funblocks/internal/generator"
)

// GenerateProcessor compiles the root block into an expression.
type GenerateProcessor struct{}

func (GenerateProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Root == nil || ctx.Failed() {
		return ctx
	}
	expr, err := generator.Generate(ctx.Root)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Expr = expr
	return ctx
}

// CheckProcessor typechecks the generated expression.
type CheckProcessor struct {
	Logger *slog.Logger
}

func (p CheckProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Expr == nil || ctx.Failed() || ctx.Evaluator == nil {
		return ctx
	}
	var opts []analyzer.Option
	if p.Logger != nil {
		opts = append(opts, analyzer.WithLogger(p.Logger))
	}
	t, err := analyzer.New(ctx.Evaluator.Globals(), opts...).Check(ctx.Expr, ctx.Expected)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Type = t
	return ctx
}
