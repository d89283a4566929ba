package main

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/backend"
	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/colour"
	"github.com/funvibe/funblocks/internal/generator"
	"github.com/funvibe/funblocks/internal/inference"
	"github.com/funvibe/funblocks/internal/pipeline"
	"github.com/funvibe/funblocks/internal/typesystem"
	"github.com/funvibe/funblocks/internal/workspace"
	"github.com/sanity-io/litter"
)

func (a *app) check(s *session) (bool, error) {
	engine, err := a.engine(s)
	if err != nil {
		return false, err
	}
	return a.printReport(s.ws, engine), nil
}

// printReport prints every block tree with its inferred types. It returns
// false when any block has a type mismatch.
func (a *app) printReport(ws *blocks.Workspace, engine *inference.Engine) bool {
	ok := true
	for _, root := range ws.Roots() {
		if !a.printNode(engine, root, "", 0) {
			ok = false
		}
	}
	return ok
}

func (a *app) printNode(engine *inference.Engine, n blocks.Node, input string, depth int) bool {
	res, found := engine.Report(n.ID())
	if !found {
		return true
	}
	indent := strings.Repeat("  ", depth)
	label := n.ID()
	if input != "" {
		label = input + ": " + label
	}
	status := res.Status.String()
	if res.Status == inference.StatusMismatch {
		status = colour.Paint(status, colour.Failing)
	}
	fmt.Fprintf(a.out, "%s%s %s %s %s\n", indent, label, res.Shape, a.paintType(res.Inferred), status)
	for _, err := range res.Errors {
		fmt.Fprintf(a.out, "%s  ! %s\n", indent, err)
	}

	ok := res.Status != inference.StatusMismatch
	for _, slot := range res.Slots {
		child := n.Child(slot.Input)
		if child == nil {
			fmt.Fprintf(a.out, "%s  %s: _ %s\n", indent, slot.Input, a.paintType(slot.Inferred))
			continue
		}
		if !a.printNode(engine, child, slot.Input, depth+1) {
			ok = false
		}
	}
	return ok
}

func (a *app) paintType(t typesystem.Type) string {
	if t == nil {
		return "-"
	}
	return colour.Paint(t.String(), a.colours.Colour(t))
}

// runnable reports whether a root produces a value on its own.
func runnable(n blocks.Node) bool {
	return n.OutputType() != nil && n.Shape() != blocks.ShapeArgument
}

func (a *app) run(s *session) bool {
	b := backend.NewTreeWalk()
	p := pipeline.New(
		pipeline.GenerateProcessor{},
		pipeline.CheckProcessor{Logger: a.logger},
		backend.NewExecutionProcessor(b),
	)

	ok := true
	for _, root := range s.ws.Roots() {
		if !runnable(root) {
			continue
		}
		if _, body := s.doc.Function(root.ID()); body {
			continue
		}
		if generator.HasHoles(root) {
			a.logger.Info("skipping unfinished block", "block", root.ID())
			continue
		}
		ctx := pipeline.NewContext(root, s.eval)
		if text, found := s.doc.Expect[root.ID()]; found {
			t, err := typesystem.Parse(text)
			if err != nil {
				ctx.Errors = append(ctx.Errors, fmt.Errorf("expect %s: %w", root.ID(), err))
			}
			ctx.Expected = t
		}
		ctx = p.Run(ctx)
		if ctx.Failed() {
			ok = false
			for _, err := range ctx.Errors {
				fmt.Fprintf(a.out, "%s: %s\n", root.ID(), colour.Paint(err.Error(), colour.Failing))
			}
			continue
		}
		fmt.Fprintf(a.out, "%s = %s\n", root.ID(), ctx.Value.Inspect())
	}
	return ok
}

func (a *app) test(s *session) bool {
	results := backend.RunExamples(backend.NewTreeWalk(), s.eval, s.ws.Roots())
	passed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(a.out, "%s %s: %s\n", colour.Paint("FAIL", colour.Failing), r.NodeID, r.Err)
		case !r.Passed:
			fmt.Fprintf(a.out, "%s %s: got %s, want %s\n", colour.Paint("FAIL", colour.Failing), r.NodeID, r.Got.Inspect(), r.Want.Inspect())
		default:
			passed++
			fmt.Fprintf(a.out, "%s %s\n", colour.Paint("PASS", colour.Passing), r.NodeID)
		}
	}
	fmt.Fprintf(a.out, "%d/%d examples passed\n", passed, len(results))
	return passed == len(results)
}

func (a *app) generate(s *session, dump bool) bool {
	ok := true
	for _, root := range s.ws.Roots() {
		if root.Shape() == blocks.ShapeExample {
			expr, want, err := generator.GenerateExample(root)
			if err != nil {
				ok = false
				fmt.Fprintf(a.out, "%s: %s\n", root.ID(), err)
				continue
			}
			if dump {
				fmt.Fprintf(a.out, "%s:\n%s\n%s\n", root.ID(), litter.Sdump(expr), litter.Sdump(want))
				continue
			}
			fmt.Fprintf(a.out, "%s: %s => %s\n", root.ID(), expr, want)
			continue
		}
		label := root.ID()
		var expr ast.Expression
		var err error
		if f, body := s.doc.Function(root.ID()); body {
			label = f.Name
			expr, err = generateFunction(f, root)
		} else {
			expr, err = generator.Generate(root)
		}
		if err != nil {
			ok = false
			fmt.Fprintf(a.out, "%s: %s\n", label, err)
			continue
		}
		if dump {
			fmt.Fprintf(a.out, "%s:\n%s\n", label, litter.Sdump(expr))
			continue
		}
		fmt.Fprintf(a.out, "%s: %s\n", label, expr)
	}
	return ok
}

func generateFunction(f workspace.FunctionSpec, body blocks.Node) (ast.Expression, error) {
	spec, ret, err := f.Spec()
	if err != nil {
		return nil, err
	}
	fn, err := generator.GenerateFunction(f.Name, spec, ret, body)
	if err != nil {
		return nil, err
	}
	return fn, nil
}

// watch checks the workspace, then applies each saved change as edits to
// the live block graph and reports again.
func (a *app) watch(ctx context.Context, path string) error {
	s, err := a.load(ctx, path)
	if err != nil {
		return err
	}
	engine, err := a.subscribe(s)
	if err != nil {
		return err
	}
	a.printReport(s.ws, engine)

	return workspace.Watch(ctx, path, a.logger, func(data []byte) {
		next, err := workspace.ParseDocument(data, path)
		if err != nil {
			a.logger.Error("workspace not reloaded", "error", err)
			return
		}
		// Changed signatures alter the palette, which means building afresh.
		rebuild := !reflect.DeepEqual(s.doc.Functions, next.Functions)
		if !rebuild {
			edits := workspace.Diff(s.doc, next)
			a.logger.Debug("applying edits", "count", len(edits))
			if err := workspace.Apply(s.ws, s.palette, edits); err != nil {
				a.logger.Warn("incremental update failed, rebuilding", "error", err)
				rebuild = true
			}
		}
		if rebuild {
			fresh, err := a.open(ctx, next)
			if err != nil {
				a.logger.Error("workspace not reloaded", "error", err)
				return
			}
			if engine, err = a.subscribe(fresh); err != nil {
				a.logger.Error("workspace not reloaded", "error", err)
				return
			}
			s = fresh
		} else {
			if err := applyExpectations(engine, s.doc.Expectations(), next.Expectations()); err != nil {
				a.logger.Error("expectations not applied", "error", err)
			}
			s.doc = next
			a.define(s)
		}
		fmt.Fprintln(a.out, "---")
		a.printReport(s.ws, engine)
	})
}

// subscribe starts an engine that follows the session's workspace edits.
func (a *app) subscribe(s *session) (*inference.Engine, error) {
	engine, err := a.engine(s)
	if err != nil {
		return nil, err
	}
	s.ws.Subscribe(func(ev blocks.Event) {
		if err := engine.HandleEvent(ev); err != nil {
			a.logger.Warn("edit not propagated", "event", ev.Kind, "block", ev.NodeID, "error", err)
		}
	})
	return engine, nil
}
