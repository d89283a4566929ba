package blocks

import (
	"testing"

	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/typesystem"
	"github.com/kr/pretty"
)

func mustAdd(t *testing.T, w *Workspace, id string, shape Shape, meta Meta) *Block {
	t.Helper()
	b, err := w.AddBlock(id, shape, meta)
	if err != nil {
		t.Fatalf("AddBlock(%s): %v", id, err)
	}
	return b
}

func mustConnect(t *testing.T, w *Workspace, parent, input, child string) {
	t.Helper()
	if err := w.Connect(parent, input, child); err != nil {
		t.Fatalf("Connect(%s.%s, %s): %v", parent, input, child, err)
	}
}

func TestInputsFollowShapeMetadata(t *testing.T) {
	plus := NewSignature("+", ast.NewSpec(nil,
		ast.Param{Name: "a", Type: typesystem.Number{}},
		ast.Param{Name: "b", Type: typesystem.Number{}}), typesystem.Number{})
	appendSig := NewSignature("string-append", ast.NewSpec(&ast.Param{Name: "more", Type: typesystem.String{}}), typesystem.String{})

	tests := []struct {
		shape Shape
		meta  Meta
		want  []string
	}{
		{ShapeNumber, Meta{}, []string{}},
		{ShapeCons, Meta{}, []string{"car", "cdr"}},
		{ShapeFirst, Meta{}, []string{"x"}},
		{ShapeList, Meta{RestCount: 2}, []string{"REST_ARG0", "REST_ARG1"}},
		{ShapeApp, Meta{Callee: plus}, []string{"a", "b"}},
		{ShapeApp, Meta{Callee: appendSig, RestCount: 3}, []string{"REST_ARG0", "REST_ARG1", "REST_ARG2"}},
		{ShapeIf, Meta{}, []string{"PRED", "THEN_EXPR", "ELSE_EXPR"}},
		{ShapeCond, Meta{ClauseCount: 2, HasElse: true}, []string{"CONDITION0", "BODY0", "CONDITION1", "BODY1", "ELSE"}},
		{ShapeExample, Meta{}, []string{"EXPR", "RESULT"}},
	}
	for _, tt := range tests {
		got := []string{}
		for _, in := range InputsFor(tt.shape, tt.meta) {
			got = append(got, in.Name)
		}
		if diff := pretty.Diff(got, tt.want); len(diff) > 0 {
			t.Errorf("InputsFor(%s): %v", tt.shape, diff)
		}
	}
}

func TestDeclaredTypes(t *testing.T) {
	if got := OutputTypeFor(ShapeExample, Meta{}); got != nil {
		t.Errorf("example blocks have no output, got %s", got)
	}
	if got := OutputTypeFor(ShapeAnd, Meta{}); !typesystem.SameType(got, typesystem.Boolean{}) {
		t.Errorf("and output = %s", got)
	}
	for _, in := range InputsFor(ShapeOr, Meta{RestCount: 2}) {
		if !typesystem.SameType(in.Type, typesystem.Boolean{}) {
			t.Errorf("or input %s = %s, want Boolean", in.Name, in.Type)
		}
	}
}

func TestValidateMeta(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		meta  Meta
		ok    bool
	}{
		{"number literal", ShapeNumber, Meta{Literal: "4.5"}, true},
		{"bad number", ShapeNumber, Meta{Literal: "four"}, false},
		{"bad boolean", ShapeBoolean, Meta{Literal: "yes"}, false},
		{"app without callee", ShapeApp, Meta{}, false},
		{"argument without name", ShapeArgument, Meta{}, false},
		{"unknown shape", Shape("loop"), Meta{}, false},
		{"negative count", ShapeList, Meta{RestCount: -1}, false},
	}
	for _, tt := range tests {
		err := ValidateMeta(tt.shape, tt.meta)
		if (err == nil) != tt.ok {
			t.Errorf("%s: ValidateMeta = %v", tt.name, err)
		}
	}
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		shape Shape
		text  string
		want  string
	}{
		{ShapeNumber, "3", "3"},
		{ShapeNumber, " 2.5 ", "2.5"},
		{ShapeString, "hi", `"hi"`},
		{ShapeCharacter, `#\a`, `#\a`},
		{ShapeCharacter, "space", `#\space`},
		{ShapeBoolean, "#t", "#t"},
		{ShapeBoolean, "false", "#f"},
	}
	for _, tt := range tests {
		expr, err := ParseLiteral(tt.shape, tt.text)
		if err != nil {
			t.Errorf("ParseLiteral(%s, %q): %v", tt.shape, tt.text, err)
			continue
		}
		if expr.String() != tt.want {
			t.Errorf("ParseLiteral(%s, %q) = %s, want %s", tt.shape, tt.text, expr, tt.want)
		}
	}
	if _, err := ParseLiteral(ShapeCharacter, "ab"); err == nil {
		t.Error("two runes should not parse as a character")
	}
}

func TestConnectPublishesEvents(t *testing.T) {
	w := NewWorkspace()
	var events []Event
	w.Subscribe(func(ev Event) { events = append(events, ev) })

	mustAdd(t, w, "list", ShapeList, Meta{RestCount: 2})
	mustAdd(t, w, "one", ShapeNumber, Meta{Literal: "1"})
	mustConnect(t, w, "list", RestArgInput(0), "one")
	if err := w.SetLiteral("one", "2"); err != nil {
		t.Fatal(err)
	}
	if err := w.Disconnect("list", RestArgInput(0)); err != nil {
		t.Fatal(err)
	}

	kinds := []EventKind{}
	for i, ev := range events {
		kinds = append(kinds, ev.Kind)
		if ev.Seq != uint64(i+1) {
			t.Errorf("event %d has seq %d", i, ev.Seq)
		}
	}
	want := []EventKind{EventCreated, EventCreated, EventAttach, EventValueChanged, EventDetach}
	if diff := pretty.Diff(kinds, want); len(diff) > 0 {
		t.Errorf("events: %v", diff)
	}
	attach := events[2]
	if attach.NodeID != "list" || attach.Input != "REST_ARG0" || attach.ChildID != "one" {
		t.Errorf("attach event = %# v", pretty.Formatter(attach))
	}
}

func TestConnectRejectsInvalidEdits(t *testing.T) {
	w := NewWorkspace()
	mustAdd(t, w, "c1", ShapeCons, Meta{})
	mustAdd(t, w, "c2", ShapeCons, Meta{})
	mustAdd(t, w, "n", ShapeNumber, Meta{Literal: "1"})
	mustAdd(t, w, "ex", ShapeExample, Meta{})
	mustConnect(t, w, "c1", config.CdrInput, "c2")

	tests := []struct {
		name                 string
		parent, input, child string
	}{
		{"missing input", "c1", "nope", "n"},
		{"missing block", "c1", config.CarInput, "ghost"},
		{"occupied slot", "c1", config.CdrInput, "n"},
		{"statement child", "c1", config.CarInput, "ex"},
		{"already attached", "c2", config.CarInput, "c2"},
		{"cycle", "c2", config.CdrInput, "c1"},
	}
	for _, tt := range tests {
		if err := w.Connect(tt.parent, tt.input, tt.child); err == nil {
			t.Errorf("%s: expected Connect to fail", tt.name)
		}
	}
}

func TestHolesAndParents(t *testing.T) {
	w := NewWorkspace()
	cons := mustAdd(t, w, "cons", ShapeCons, Meta{})
	mustAdd(t, w, "one", ShapeNumber, Meta{Literal: "1"})
	mustConnect(t, w, "cons", config.CarInput, "one")

	if cons.Child(config.CdrInput) != nil {
		t.Error("unfilled slot should be a nil Node")
	}
	parent, input, ok := w.Parent("one")
	if !ok || parent.ID() != "cons" || input != config.CarInput {
		t.Errorf("Parent(one) = %v %q %v", parent, input, ok)
	}
	if root, _ := Root(w, "one"); root.ID() != "cons" {
		t.Errorf("Root(one) = %s", root.ID())
	}
	if roots := w.Roots(); len(roots) != 1 || roots[0].ID() != "cons" {
		t.Errorf("Roots() = %d nodes", len(roots))
	}

	var seen []string
	Walk(cons, func(n Node) { seen = append(seen, n.ID()) })
	if diff := pretty.Diff(seen, []string{"cons", "one"}); len(diff) > 0 {
		t.Errorf("Walk: %v", diff)
	}
}

func TestRemoveDetachesEverything(t *testing.T) {
	w := NewWorkspace()
	mustAdd(t, w, "if", ShapeIf, Meta{})
	mustAdd(t, w, "first", ShapeFirst, Meta{})
	mustAdd(t, w, "empty", ShapeEmpty, Meta{})
	mustConnect(t, w, "if", config.ThenInput, "first")
	mustConnect(t, w, "first", config.ListArgInput, "empty")

	var kinds []EventKind
	w.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })
	if err := w.Remove("first"); err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(kinds, []EventKind{EventDetach, EventDetach, EventRemoved}); len(diff) > 0 {
		t.Errorf("events: %v", diff)
	}
	if _, ok := w.Node("first"); ok {
		t.Error("removed block still present")
	}
	if len(w.Roots()) != 2 {
		t.Errorf("expected if and empty as roots, got %d", len(w.Roots()))
	}
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	w := NewWorkspace()
	a, err := w.NewBlock(ShapeEmpty, Meta{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := w.NewBlock(ShapeEmpty, Meta{})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID() == b.ID() || a.ID() == "" {
		t.Errorf("ids %q and %q", a.ID(), b.ID())
	}
	if err := w.SetLiteral(a.ID(), "1"); err == nil {
		t.Error("empty blocks carry no literal")
	}
}
