package workspace

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/evaluator"
	"github.com/funvibe/funblocks/internal/generator"
	"github.com/funvibe/funblocks/internal/typesystem"
	"github.com/kr/pretty"
)

const sample = `
version: 1.0.0
blocks:
  - id: plus
    shape: app
    callee: "+"
    inputs:
      a: two
      b: three
  - id: two
    shape: number
    literal: "2"
  - id: three
    shape: number
    literal: "3"
  - id: items
    shape: list
    rest: 2
    inputs:
      REST_ARG0: word
  - id: word
    shape: string
    literal: hello
  - id: x
    shape: argument
    name: x
    type: (Listof Number)
expect:
  items: (Listof String)
`

func newPalette() *Palette {
	return NewPalette(evaluator.New())
}

func parse(t *testing.T, text string) *Document {
	t.Helper()
	doc, err := ParseDocument([]byte(text), "test.yaml")
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return doc
}

func TestParseAndBuild(t *testing.T) {
	doc := parse(t, sample)
	ws, err := Build(doc, newPalette())
	if err != nil {
		t.Fatal(err)
	}
	plus, ok := ws.Block("plus")
	if !ok {
		t.Fatal("plus not built")
	}
	if got := plus.Child("a"); got == nil || got.ID() != "two" {
		t.Errorf("plus.a = %v", got)
	}
	x, _ := ws.Block("x")
	if !typesystem.SameType(x.OutputType(), typesystem.List{Element: typesystem.Number{}}) {
		t.Errorf("argument type = %s", x.OutputType())
	}
	roots := []string{}
	for _, r := range ws.Roots() {
		roots = append(roots, r.ID())
	}
	if diff := pretty.Diff(roots, []string{"plus", "items", "x"}); len(diff) > 0 {
		t.Errorf("roots: %v", diff)
	}
}

func TestDocumentValidation(t *testing.T) {
	tests := []struct {
		name, text, want string
	}{
		{"missing version", "blocks: []", "missing version"},
		{"future version", "version: 2.0.0", "not supported"},
		{"bad version", "version: one", "invalid version"},
		{"duplicate id", "version: 1.0.0\nblocks: [{id: a, shape: empty}, {id: a, shape: empty}]", "duplicate"},
		{"unknown shape", "version: 1.0.0\nblocks: [{id: a, shape: loop}]", "unknown shape"},
		{"dangling input", "version: 1.0.0\nblocks: [{id: a, shape: first, inputs: {x: b}}]", "unknown block"},
		{"shared child", "version: 1.0.0\nblocks: [{id: a, shape: first, inputs: {x: c}}, {id: b, shape: rest, inputs: {x: c}}, {id: c, shape: empty}]", "both"},
		{"function without body", "version: 1.0.0\nfunctions: [{name: f, body: b}]", "unknown block"},
		{"duplicate function", "version: 1.0.0\nblocks: [{id: a, shape: empty}, {id: b, shape: empty}]\nfunctions: [{name: f, body: a}, {name: f, body: b}]", "duplicate function"},
		{"shared body", "version: 1.0.0\nblocks: [{id: a, shape: empty}]\nfunctions: [{name: f, body: a}, {name: g, body: a}]", "body of both"},
		{"nested body", "version: 1.0.0\nblocks: [{id: a, shape: first, inputs: {x: b}}, {id: b, shape: empty}]\nfunctions: [{name: f, body: b}]", "connected to a"},
		{"duplicate parameter", "version: 1.0.0\nblocks: [{id: a, shape: empty}]\nfunctions: [{name: f, params: [{name: x}, {name: x}], body: a}]", "duplicate parameter"},
		{"bad return type", "version: 1.0.0\nblocks: [{id: a, shape: empty}]\nfunctions: [{name: f, return: (Listof, body: a}]", "return type"},
	}
	for _, tt := range tests {
		_, err := ParseDocument([]byte(tt.text), "t.yaml")
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: error %v, want it to mention %q", tt.name, err, tt.want)
		}
	}
	if _, err := ParseDocument([]byte("version: 1.4.2\nblocks: []"), "t.yaml"); err != nil {
		t.Errorf("minor versions should be accepted: %v", err)
	}
}

func TestPaletteResolvesCallees(t *testing.T) {
	p := newPalette()
	sig, ok := p.Signature("string-append")
	if !ok || sig.Rest == nil {
		t.Fatalf("string-append signature = %#v", sig)
	}
	if _, ok := p.Signature(config.MapFuncName); !ok {
		t.Error("prelude functions belong in the palette")
	}
	if _, ok := p.Signature(config.EmptyName); ok {
		t.Error("empty is not callable")
	}
	if _, err := p.Meta(BlockSpec{ID: "f", Shape: "app", Callee: "frobnicate"}); err == nil {
		t.Error("unknown callee should fail")
	}
	if _, err := p.Meta(BlockSpec{ID: "a", Shape: "argument", Name: "a", Type: "(Listof"}); err == nil {
		t.Error("bad type should fail")
	}
}

func TestDiffProducesMinimalEdits(t *testing.T) {
	prev := parse(t, sample)
	next := parse(t, strings.NewReplacer(
		`literal: "3"`, `literal: "4"`,
		"REST_ARG0: word", "REST_ARG1: word",
	).Replace(sample))

	var got []string
	for _, e := range Diff(prev, next) {
		got = append(got, e.String())
	}
	want := []string{
		"disconnect items.REST_ARG0 word",
		`set-literal three "4"`,
		"connect items.REST_ARG1 word",
	}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Errorf("Diff: %v", diff)
	}
}

func TestDiffReplacesChangedBlocks(t *testing.T) {
	prev := parse(t, sample)
	next := parse(t, strings.Replace(sample, "rest: 2", "rest: 3", 1))

	ws, err := Build(prev, newPalette())
	if err != nil {
		t.Fatal(err)
	}
	var kinds []blocks.EventKind
	ws.Subscribe(func(ev blocks.Event) { kinds = append(kinds, ev.Kind) })
	if err := Apply(ws, newPalette(), Diff(prev, next)); err != nil {
		t.Fatal(err)
	}
	want := []blocks.EventKind{blocks.EventDetach, blocks.EventRemoved, blocks.EventCreated, blocks.EventAttach}
	if diff := pretty.Diff(kinds, want); len(diff) > 0 {
		t.Errorf("events: %v", diff)
	}
	items, _ := ws.Block("items")
	if len(items.Inputs()) != 3 || items.Child("REST_ARG0") == nil {
		t.Errorf("items not rebuilt: %d inputs", len(items.Inputs()))
	}
}

func TestInputNamesSortNumerically(t *testing.T) {
	got := inputNames(map[string]string{"REST_ARG10": "", "REST_ARG2": "", "BODY0": "", "CONDITION0": ""})
	want := []string{"BODY0", "CONDITION0", "REST_ARG2", "REST_ARG10"}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Errorf("inputNames: %v", diff)
	}
}

func TestWatchReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w.yaml")
	if err := os.WriteFile(path, []byte("version: 1.0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	changes := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, slog.Default(), func(data []byte) {
			select {
			case changes <- string(data):
			default:
			}
		})
	}()

	// Keep writing until the watcher has registered and seen a change.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case data := <-changes:
			if !strings.Contains(data, "blocks") {
				continue
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatal(err)
			}
			return
		case <-ticker.C:
			if err := os.WriteFile(path, []byte("version: 1.0.0\nblocks: []\n"), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-ctx.Done():
			t.Fatal("no change observed")
		}
	}
}

const withFunctions = `
version: 1.0.0
functions:
  - name: twice
    params: [{name: s, type: String}]
    return: String
    body: join
  - name: shout
    params: [{name: s, type: String}]
    body: join2
blocks:
  - id: join
    shape: app
    callee: string-append
    rest: 2
    inputs: {REST_ARG0: s1, REST_ARG1: s2}
  - {id: s1, shape: argument, name: s, type: String}
  - {id: s2, shape: argument, name: s, type: String}
  - id: join2
    shape: app
    callee: string-append
    rest: 2
    inputs: {REST_ARG0: s3}
  - {id: s3, shape: argument, name: s, type: String}
  - id: call
    shape: app
    callee: twice
    inputs: {s: word}
  - {id: word, shape: string, literal: ab}
expect:
  call: String
`

func TestFunctionsAreCallable(t *testing.T) {
	doc := parse(t, withFunctions)
	e := evaluator.New()
	p := NewPalette(e)
	if err := p.AddFunctions(doc.Functions); err != nil {
		t.Fatal(err)
	}
	sig, ok := p.Signature("twice")
	if !ok || len(sig.Params) != 1 || !typesystem.SameType(sig.Return, typesystem.String{}) {
		t.Fatalf("twice signature = %# v", pretty.Formatter(sig))
	}
	ws, err := Build(doc, p)
	if err != nil {
		t.Fatal(err)
	}

	skipped := DefineFunctions(e, ws, doc)
	if _, ok := skipped["twice"]; ok || len(skipped) != 1 || skipped["shout"] == nil {
		t.Errorf("skipped = %v, want only the unfinished shout", skipped)
	}
	call, _ := ws.Block("call")
	expr, err := generator.Generate(call)
	if err != nil {
		t.Fatal(err)
	}
	val, err := e.Eval(expr)
	if err != nil {
		t.Fatal(err)
	}
	if got := val.Inspect(); got != `"abab"` {
		t.Errorf("(twice \"ab\") = %s", got)
	}

	if f, ok := doc.Function("join"); !ok || f.Name != "twice" {
		t.Errorf("Function(join) = %v, %v", f, ok)
	}
	want := map[string]string{"call": "String", "join": "String"}
	if diff := pretty.Diff(doc.Expectations(), want); len(diff) > 0 {
		t.Errorf("Expectations: %v", diff)
	}
}
