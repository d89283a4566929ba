package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/colour"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/evaluator"
	"github.com/funvibe/funblocks/internal/inference"
	"github.com/funvibe/funblocks/internal/typesystem"
	"github.com/funvibe/funblocks/internal/workspace"
	"github.com/samber/lo"
)

const usageText = `Usage: funblocks [-config file] [-v] <command> <workspace%s>

Commands:
  check     infer block types and report holes and mismatches
  run       evaluate every complete root block
  test      run example blocks
  generate  print the expressions root blocks compile to (-dump for the tree)
  watch     check again whenever the workspace file changes
`

// app holds what every command needs.
type app struct {
	settings *config.Settings
	logger   *slog.Logger
	colours  *colour.Palette
	out      io.Writer
}

// session is a loaded workspace.
type session struct {
	doc     *workspace.Document
	ws      *blocks.Workspace
	palette *workspace.Palette
	eval    *evaluator.Evaluator
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	configPath := flag.String("config", config.SettingsFileName, "settings file")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Usage = func() { fmt.Fprintf(os.Stderr, usageText, config.WorkspaceFileExt) }
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}

	settings, err := config.LoadSettings(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	level := settings.LogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a := &app{
		settings: settings,
		logger:   logger,
		colours:  colour.NewPalette(settings.Colour),
		out:      os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ok, err := a.dispatch(ctx, args[0], args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

// dispatch runs one command. ok is false when the workspace has failures.
func (a *app) dispatch(ctx context.Context, cmd string, args []string) (ok bool, err error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	dump := false
	if cmd == "generate" {
		fs.BoolVar(&dump, "dump", false, "dump the expression tree")
	}
	if err := fs.Parse(args); err != nil {
		return false, err
	}
	if fs.NArg() != 1 {
		return false, fmt.Errorf("%s needs exactly one workspace file", cmd)
	}
	path := fs.Arg(0)

	switch cmd {
	case "check":
		s, err := a.load(ctx, path)
		if err != nil {
			return false, err
		}
		return a.check(s)
	case "run":
		s, err := a.load(ctx, path)
		if err != nil {
			return false, err
		}
		return a.run(s), nil
	case "test":
		s, err := a.load(ctx, path)
		if err != nil {
			return false, err
		}
		return a.test(s), nil
	case "generate":
		s, err := a.load(ctx, path)
		if err != nil {
			return false, err
		}
		return a.generate(s, dump), nil
	case "watch":
		return true, a.watch(ctx, path)
	}
	return false, fmt.Errorf("unknown command %q", cmd)
}

// evaluator builds an evaluator with the configured limits, stopping when
// ctx is done.
func (a *app) evaluator(ctx context.Context) *evaluator.Evaluator {
	opts := []evaluator.Option{
		evaluator.WithLogger(a.logger),
		evaluator.WithMaxDepth(a.settings.Eval.MaxDepth),
		evaluator.WithContext(ctx),
	}
	if a.settings.Eval.CallBudget > 0 {
		opts = append(opts, evaluator.WithInterrupter(evaluator.NewCallBudget(a.settings.Eval.CallBudget)))
	}
	return evaluator.New(opts...)
}

func (a *app) load(ctx context.Context, path string) (*session, error) {
	doc, err := workspace.ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return a.open(ctx, doc)
}

// open builds the block graph and binds the document's functions. The
// palette learns the declared function signatures first so that bodies and
// other blocks can call any of them.
func (a *app) open(ctx context.Context, doc *workspace.Document) (*session, error) {
	e := a.evaluator(ctx)
	palette := workspace.NewPalette(e)
	if err := palette.AddFunctions(doc.Functions); err != nil {
		return nil, err
	}
	ws, err := workspace.Build(doc, palette)
	if err != nil {
		return nil, err
	}
	s := &session{doc: doc, ws: ws, palette: palette, eval: e}
	a.define(s)
	a.logger.Debug("workspace loaded", "blocks", len(doc.Blocks), "functions", len(doc.Functions), "roots", len(ws.Roots()))
	return s, nil
}

func (a *app) define(s *session) {
	skipped := workspace.DefineFunctions(s.eval, s.ws, s.doc)
	names := lo.Keys(skipped)
	sort.Strings(names)
	for _, name := range names {
		a.logger.Warn("function not defined", "function", name, "error", skipped[name])
	}
}

// engine starts inference over the session's workspace with the
// document's expectations applied.
func (a *app) engine(s *session) (*inference.Engine, error) {
	engine := inference.New(s.ws,
		inference.WithLogger(a.logger),
		inference.WithMaxSteps(a.settings.Inference.MaxSteps),
	)
	if err := applyExpectations(engine, nil, s.doc.Expectations()); err != nil {
		return nil, err
	}
	return engine, nil
}

// applyExpectations drops the prev expectations missing from next and sets
// every expectation of next. Blocks re-added by an edit lose theirs, so
// unchanged entries are set again too.
func applyExpectations(engine *inference.Engine, prev, next map[string]string) error {
	for _, id := range sortedKeys(prev) {
		if _, kept := next[id]; kept {
			continue
		}
		if _, ok := engine.Report(id); !ok {
			continue
		}
		if err := engine.SetExpected(id, nil); err != nil {
			return err
		}
	}
	for _, id := range sortedKeys(next) {
		t, err := typesystem.Parse(next[id])
		if err != nil {
			return fmt.Errorf("expect %s: %w", id, err)
		}
		if err := engine.SetExpected(id, t); err != nil {
			return fmt.Errorf("expect %s: %w", id, err)
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
