package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/funblocks/internal/colour"
	"github.com/funvibe/funblocks/internal/config"
)

const program = `
version: 1.0.0
blocks:
  - id: sum
    shape: app
    callee: "+"
    inputs: {a: one, b: two}
  - {id: one, shape: number, literal: "1"}
  - {id: two, shape: number, literal: "2"}
  - id: ex
    shape: example
    inputs: {EXPR: head, RESULT: want}
  - id: head
    shape: first
    inputs: {x: items}
  - id: items
    shape: list
    rest: 2
    inputs: {REST_ARG0: three, REST_ARG1: four}
  - {id: three, shape: number, literal: "3"}
  - {id: four, shape: number, literal: "4"}
  - {id: want, shape: number, literal: "3"}
`

func newApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	settings := config.DefaultSettings()
	return &app{
		settings: settings,
		logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		colours:  colour.NewPalette(settings.Colour),
		out:      &out,
	}, &out
}

func writeWorkspace(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "w"+config.WorkspaceFileExt)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func expectOutput(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}

func TestCommands(t *testing.T) {
	path := writeWorkspace(t, program)
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"run", path}, []string{"sum = 3"}},
		{[]string{"test", path}, []string{"PASS", "ex", "1/1 examples passed"}},
		{[]string{"generate", path}, []string{"sum: (+ 1 2)", "ex: (first (list 3 4)) => 3"}},
		{[]string{"generate", "-dump", path}, []string{"sum:", "ast.App"}},
		{[]string{"check", path}, []string{"sum app", "a: one number", "ok"}},
	}
	for _, tt := range tests {
		a, out := newApp(t)
		ok, err := a.dispatch(context.Background(), tt.args[0], tt.args[1:])
		if err != nil || !ok {
			t.Errorf("%v: ok=%v err=%v\n%s", tt.args, ok, err, out)
			continue
		}
		expectOutput(t, out.String(), tt.want...)
	}
}

func TestCheckReportsMismatch(t *testing.T) {
	path := writeWorkspace(t, strings.Replace(program,
		`{id: two, shape: number, literal: "2"}`,
		`{id: two, shape: string, literal: "two"}`, 1))
	a, out := newApp(t)
	ok, err := a.dispatch(context.Background(), "check", []string{path})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("check passed on a mismatched workspace:\n%s", out)
	}
	expectOutput(t, out.String(), "mismatch", "TypeMismatch")
}

func TestRunSkipsUnfinishedRoots(t *testing.T) {
	path := writeWorkspace(t, strings.Replace(program, "inputs: {a: one, b: two}", "inputs: {a: one}", 1))
	a, out := newApp(t)
	ok, err := a.dispatch(context.Background(), "run", []string{path})
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if strings.Contains(out.String(), "sum") {
		t.Errorf("unfinished root was run:\n%s", out)
	}
}

func TestDispatchErrors(t *testing.T) {
	path := writeWorkspace(t, program)
	tests := []struct {
		cmd  string
		args []string
		want string
	}{
		{"frob", []string{path}, "unknown command"},
		{"run", nil, "exactly one workspace file"},
		{"run", []string{"-dump", path}, "flag provided but not defined"},
		{"check", []string{filepath.Join(t.TempDir(), "missing.yaml")}, "reading workspace"},
	}
	for _, tt := range tests {
		a, _ := newApp(t)
		_, err := a.dispatch(context.Background(), tt.cmd, tt.args)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s %v: error %v, want %q", tt.cmd, tt.args, err, tt.want)
		}
	}
}

const functions = `
version: 1.0.0
functions:
  - name: double
    params: [{name: x, type: Number}]
    return: Number
    body: dbl
  - name: fact
    params: [{name: n, type: Number}]
    return: Number
    body: fact-if
blocks:
  - id: dbl
    shape: app
    callee: "+"
    inputs: {a: x1, b: x2}
  - {id: x1, shape: argument, name: x, type: Number}
  - {id: x2, shape: argument, name: x, type: Number}
  - id: fact-if
    shape: if
    inputs: {PRED: is-zero, THEN_EXPR: one, ELSE_EXPR: times}
  - id: is-zero
    shape: app
    callee: "="
    inputs: {a: n1, b: zero}
  - {id: n1, shape: argument, name: n, type: Number}
  - {id: zero, shape: number, literal: "0"}
  - {id: one, shape: number, literal: "1"}
  - id: times
    shape: app
    callee: "*"
    inputs: {a: n2, b: recur}
  - {id: n2, shape: argument, name: n, type: Number}
  - id: recur
    shape: app
    callee: fact
    inputs: {n: minus}
  - id: minus
    shape: app
    callee: "-"
    inputs: {a: n3, b: one-more}
  - {id: n3, shape: argument, name: n, type: Number}
  - {id: one-more, shape: number, literal: "1"}
  - id: six
    shape: app
    callee: double
    inputs: {x: three}
  - {id: three, shape: number, literal: "3"}
  - id: f5
    shape: app
    callee: fact
    inputs: {n: five}
  - {id: five, shape: number, literal: "5"}
  - id: ex
    shape: example
    inputs: {EXPR: f4, RESULT: want}
  - id: f4
    shape: app
    callee: fact
    inputs: {n: four}
  - {id: four, shape: number, literal: "4"}
  - {id: want, shape: number, literal: "24"}
`

func TestUserFunctions(t *testing.T) {
	path := writeWorkspace(t, functions)
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"run", path}, []string{"six = 6", "f5 = 120"}},
		{[]string{"test", path}, []string{"PASS ex", "1/1 examples passed"}},
		{[]string{"generate", path}, []string{"double: (lambda (x) (+ x x))", "fact: (lambda (n) (if (= n 0) 1 (* n (fact (- n 1)))))", "six: (double 3)"}},
		{[]string{"check", path}, []string{"dbl app", "recur app"}},
	}
	for _, tt := range tests {
		a, out := newApp(t)
		ok, err := a.dispatch(context.Background(), tt.args[0], tt.args[1:])
		if err != nil || !ok {
			t.Errorf("%v: ok=%v err=%v\n%s", tt.args, ok, err, out)
			continue
		}
		expectOutput(t, out.String(), tt.want...)
		if tt.args[0] == "run" && strings.Contains(out.String(), "dbl") {
			t.Errorf("function body was run as a root:\n%s", out)
		}
	}
}

func TestFunctionReturnTypeIsChecked(t *testing.T) {
	path := writeWorkspace(t, strings.Replace(functions, "return: Number", "return: String", 1))
	a, out := newApp(t)
	ok, err := a.dispatch(context.Background(), "check", []string{path})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("check passed with a wrong return type:\n%s", out)
	}
	expectOutput(t, out.String(), "mismatch")
}

func TestUnfinishedFunctionIsNotBound(t *testing.T) {
	path := writeWorkspace(t, strings.Replace(functions, "inputs: {a: x1, b: x2}", "inputs: {a: x1}", 1))
	a, out := newApp(t)
	ok, err := a.dispatch(context.Background(), "run", []string{path})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("calling an unfinished function succeeded:\n%s", out)
	}
	expectOutput(t, out.String(), "six: ", "UnboundName", "f5 = 120")
}
