package evaluator

import (
	"context"
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/diagnostics"
	"github.com/funvibe/funblocks/internal/typesystem"
)

func num(v float64) *ast.Num { return &ast.Num{Value: v} }

func name(n string) *ast.Name { return &ast.Name{Value: n} }

func testEval(t *testing.T, e *Evaluator, expr ast.Expression) Value {
	t.Helper()
	val, err := e.Eval(expr)
	if err != nil {
		t.Fatalf("Eval(%s) failed: %v", expr, err)
	}
	return val
}

func expectNum(t *testing.T, val Value, want float64) {
	t.Helper()
	n, ok := val.(*Num)
	if !ok {
		t.Fatalf("expected *Num, got %s", spew.Sdump(val))
	}
	if n.Value != want {
		t.Errorf("got %v, want %v", n.Value, want)
	}
}

func expectCode(t *testing.T, err error, code diagnostics.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got no error", code)
	}
	if !diagnostics.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestAddition(t *testing.T) {
	expectNum(t, testEval(t, New(), ast.Call("+", num(2), num(3))), 5)
}

func TestFirstOfCons(t *testing.T) {
	expr := ast.Call("first", ast.Call("cons", num(1), &ast.Empty{}))
	expectNum(t, testEval(t, New(), expr), 1)
}

func TestCondWithoutMatch(t *testing.T) {
	expr := &ast.Cond{Clauses: []*ast.CondClause{{Test: &ast.Boolean{Value: false}, Body: num(1)}}}
	_, err := New().Eval(expr)
	expectCode(t, err, diagnostics.NoMatchingClause)
}

func TestCondFirstTrueClauseWins(t *testing.T) {
	expr := &ast.Cond{
		Clauses: []*ast.CondClause{
			{Test: ast.Call(">", num(1), num(2)), Body: num(1)},
			{Test: ast.Call("<", num(1), num(2)), Body: num(2)},
			{Test: &ast.Boolean{Value: true}, Body: num(3)},
		},
		Else: num(4),
	}
	expectNum(t, testEval(t, New(), expr), 2)
}

func counter() (*ast.Primitive, *int) {
	calls := 0
	p := NewPrimitive("tick", fixed(), tNum, func(_, _ []Value) (Value, error) {
		calls++
		return &Num{Value: float64(calls)}, nil
	})
	return p, &calls
}

func TestUntakenBranchIsNotEvaluated(t *testing.T) {
	tick, calls := counter()
	e := New(WithBuiltins(tick))

	expr := &ast.If{Test: &ast.Boolean{Value: true}, Then: num(1), Else: ast.Call("tick")}
	expectNum(t, testEval(t, e, expr), 1)
	if *calls != 0 {
		t.Errorf("else branch evaluated %d time(s)", *calls)
	}

	expr = &ast.If{Test: &ast.Boolean{Value: false}, Then: ast.Call("tick"), Else: num(2)}
	expectNum(t, testEval(t, e, expr), 2)
	if *calls != 0 {
		t.Errorf("then branch evaluated %d time(s)", *calls)
	}
}

func TestAndOrShortCircuit(t *testing.T) {
	tick, calls := counter()
	e := New(WithBuiltins(tick))

	and := &ast.And{Args: []ast.Expression{&ast.Boolean{Value: false}, ast.Call("tick")}}
	if val := testEval(t, e, and); val != FALSE {
		t.Errorf("and = %s, want #f", val.Inspect())
	}
	or := &ast.Or{Args: []ast.Expression{num(7), ast.Call("tick")}}
	expectNum(t, testEval(t, e, or), 7)
	if *calls != 0 {
		t.Errorf("short-circuited operand evaluated %d time(s)", *calls)
	}

	and = &ast.And{Args: []ast.Expression{&ast.Boolean{Value: true}, ast.Call("tick")}}
	expectNum(t, testEval(t, e, and), 1)
	if val := testEval(t, e, &ast.Or{}); val != FALSE {
		t.Errorf("empty or = %s, want #f", val.Inspect())
	}
	if val := testEval(t, e, &ast.And{}); val != TRUE {
		t.Errorf("empty and = %s, want #t", val.Inspect())
	}
}

func TestArity(t *testing.T) {
	e := New()
	two := &ast.Lambda{
		Spec: fixed(param("a", tNum), param("b", tNum)),
		Body: ast.Call("+", name("a"), name("b")),
	}
	if _, err := e.Define("add", two); err != nil {
		t.Fatal(err)
	}

	_, err := e.Eval(ast.Call("add", num(1)))
	expectCode(t, err, diagnostics.ArityMismatch)
	_, err = e.Eval(ast.Call("add", num(1), num(2), num(3)))
	expectCode(t, err, diagnostics.ArityMismatch)

	withRest := &ast.Lambda{
		Spec: variadic(param("more", tNum), param("a", tNum), param("b", tNum)),
		Body: &ast.Name{Value: "more"},
	}
	if _, err := e.Define("add*", withRest); err != nil {
		t.Fatal(err)
	}
	val := testEval(t, e, ast.Call("add*", num(1), num(2), num(3), num(4)))
	if got := val.Inspect(); got != "(3 4)" {
		t.Errorf("rest parameter = %s, want (3 4)", got)
	}
	val = testEval(t, e, ast.Call("add*", num(1), num(2)))
	if _, ok := val.(*Empty); !ok {
		t.Errorf("empty rest = %s, want ()", val.Inspect())
	}
}

func TestArityCheckedBeforeArguments(t *testing.T) {
	tick, calls := counter()
	e := New(WithBuiltins(tick))
	_, err := e.Eval(ast.Call("not", ast.Call("tick"), ast.Call("tick")))
	expectCode(t, err, diagnostics.ArityMismatch)
	if *calls != 0 {
		t.Errorf("arguments evaluated before arity check")
	}
}

func TestApplyEvaluatedArguments(t *testing.T) {
	e := New()
	plus, _ := e.Builtin("+")
	val, err := e.Apply(plus, &Arguments{Positional: []Value{&Num{Value: 2}, &Num{Value: 5}}})
	if err != nil {
		t.Fatal(err)
	}
	expectNum(t, val, 7)

	list, _ := e.Builtin("list")
	val, err = e.Apply(list, nil)
	if err != nil {
		t.Fatalf("Apply with nil arguments: %v", err)
	}
	if val.Kind() != EMPTY_VAL {
		t.Errorf("(list) = %s, want empty", val.Inspect())
	}

	first, _ := e.Builtin("first")
	_, err = e.Apply(first, nil)
	expectCode(t, err, diagnostics.ArityMismatch)
}

func TestKeywordArguments(t *testing.T) {
	e := New()
	lambda := &ast.Lambda{
		Spec: &ast.ArgumentSpec{
			Positional: []ast.Param{param("x", tNum)},
			Keyword:    map[string]typesystem.Type{"scale": tNum},
		},
		Body: ast.Call("*", name("x"), name("scale")),
	}
	app := &ast.App{Fn: lambda, Args: &ast.Arguments{
		Positional: []ast.Expression{num(4)},
		Keyword:    map[string]ast.Expression{"scale": num(3)},
	}}
	expectNum(t, testEval(t, e, app), 12)
}

func TestClosuresCaptureDefiningScope(t *testing.T) {
	e := New()
	// (define (adder n) (lambda (x) (+ x n)))
	adder := &ast.Lambda{
		Spec: fixed(param("n", tNum)),
		Body: &ast.Lambda{Spec: fixed(param("x", tNum)), Body: ast.Call("+", name("x"), name("n"))},
	}
	if _, err := e.Define("adder", adder); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Define("add5", ast.Call("adder", num(5))); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Define("n", num(100)); err != nil {
		t.Fatal(err)
	}
	expectNum(t, testEval(t, e, ast.Call("add5", num(1))), 6)
}

func TestUnboundAndNotApplicable(t *testing.T) {
	e := New()
	_, err := e.Eval(name("nope"))
	expectCode(t, err, diagnostics.UnboundName)

	_, err = e.Eval(&ast.App{Fn: num(3), Args: &ast.Arguments{}})
	expectCode(t, err, diagnostics.NotApplicable)
}

func TestErrorsCarryOrigin(t *testing.T) {
	expr := &ast.App{
		Located: ast.Located{NodeID: "call"},
		Fn:      name("first"),
		Args:    &ast.Arguments{Positional: []ast.Expression{&ast.Empty{Located: ast.Located{NodeID: "arg"}}}},
	}
	_, err := New().Eval(expr)
	var de *diagnostics.DiagnosticError
	if !errors.As(err, &de) {
		t.Fatalf("expected DiagnosticError, got %v", err)
	}
	if de.NodeID != "call" {
		t.Errorf("NodeID = %q, want call", de.NodeID)
	}
}

func TestPrelude(t *testing.T) {
	e := New()
	square := &ast.Lambda{Spec: fixed(param("x", tNum)), Body: ast.Call("sqr", name("x"))}
	val := testEval(t, e, ast.Call("map", square, ast.Call("list", num(1), num(2), num(3))))
	if got := val.Inspect(); got != "(1 4 9)" {
		t.Errorf("map = %s, want (1 4 9)", got)
	}

	tests := []struct {
		arg  ast.Expression
		want bool
	}{
		{&ast.Empty{}, true},
		{ast.Call("list", num(1)), true},
		{num(1), false},
	}
	for _, tt := range tests {
		val := testEval(t, e, ast.Call("list?", tt.arg))
		if b, ok := val.(*Boolean); !ok || b.Value != tt.want {
			t.Errorf("list? %s = %s, want %v", tt.arg, val.Inspect(), tt.want)
		}
	}
}

func TestBuiltinsAreReadOnly(t *testing.T) {
	e := New()
	tick, _ := counter()
	if err := e.AddBuiltin("tick", tick); err == nil {
		t.Errorf("adding a builtin after construction should fail")
	}
	dup := NewPrimitive("first", fixed(), tNum, nil)
	if err := New(WithBuiltins()).AddBuiltin("first", dup); err == nil {
		t.Errorf("rebinding a builtin should fail")
	}
	if _, err := e.Define("first", num(1)); err != nil {
		t.Fatal(err)
	}
	expectNum(t, testEval(t, e, name("first")), 1)
	if v, ok := e.Builtin("first"); !ok || v.Kind() != PRIMITIVE_VAL {
		t.Errorf("shadowing at top level changed the builtin scope")
	}
}

func TestCallBudgetInterruptsDivergence(t *testing.T) {
	budget := NewCallBudget(50)
	e := New(WithInterrupter(budget))
	loop := &ast.Lambda{Spec: fixed(param("x", tNum)), Body: ast.Call("loop", name("x"))}
	if _, err := e.Define("loop", loop); err != nil {
		t.Fatal(err)
	}
	_, err := e.Eval(ast.Call("loop", num(0)))
	expectCode(t, err, diagnostics.Interrupted)

	expectNum(t, testEval(t, e, ast.Call("+", num(1), num(1))), 2)
	if budget.Calls() != 1 {
		t.Errorf("budget not reset between runs: %d calls", budget.Calls())
	}
}

func TestDepthLimit(t *testing.T) {
	e := New(WithMaxDepth(200))
	loop := &ast.Lambda{Spec: fixed(), Body: ast.Call("loop")}
	if _, err := e.Define("loop", loop); err != nil {
		t.Fatal(err)
	}
	_, err := e.Eval(ast.Call("loop"))
	expectCode(t, err, diagnostics.Interrupted)
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(WithContext(ctx)).Eval(ast.Call("+", num(1), num(2)))
	expectCode(t, err, diagnostics.Interrupted)
}

func TestRuntimeFailures(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expression
		code diagnostics.ErrorCode
	}{
		{"division by zero", ast.Call("/", num(1), num(0)), diagnostics.RuntimeFailure},
		{"first of empty", ast.Call("first", &ast.Empty{}), diagnostics.TypeMismatch},
		{"cons onto number", ast.Call("cons", num(1), num(2)), diagnostics.TypeMismatch},
		{"substring range", ast.Call("substring", &ast.Str{Value: "abc"}, num(2), num(1)), diagnostics.RuntimeFailure},
		{"add strings", ast.Call("+", &ast.Str{Value: "a"}, num(1)), diagnostics.TypeMismatch},
		{"huge string", ast.Call("make-string", num(1e18), &ast.Char{Value: 'a'}), diagnostics.RuntimeFailure},
		{"negative string", ast.Call("make-string", num(-1), &ast.Char{Value: 'a'}), diagnostics.RuntimeFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Eval(tt.expr)
			expectCode(t, err, tt.code)
		})
	}
}

func TestStandardLibrary(t *testing.T) {
	str := func(s string) *ast.Str { return &ast.Str{Value: s} }
	chr := func(r rune) *ast.Char { return &ast.Char{Value: r} }

	tests := []struct {
		expr ast.Expression
		want string
	}{
		{ast.Call("quotient", num(17), num(5)), "3"},
		{ast.Call("remainder", num(-17), num(5)), "-2"},
		{ast.Call("modulo", num(-17), num(5)), "3"},
		{ast.Call("/", num(1), num(4)), "0.25"},
		{ast.Call("sgn", num(-3)), "-1"},
		{ast.Call("round", num(2.5)), "2"},
		{ast.Call("make-string", num(3), chr('z')), `"zzz"`},
		{ast.Call("string", chr('h'), chr('i')), `"hi"`},
		{ast.Call("string-append", str("foo"), str("bar"), str("!")), `"foobar!"`},
		{ast.Call("string-ref", str("hey"), num(1)), `#\e`},
		{ast.Call("substring", str("hello"), num(1), num(3)), `"el"`},
		{ast.Call("string-length", str("héllo")), "5"},
		{ast.Call("string<?", str("abc"), str("abd")), "#t"},
		{ast.Call("string=?", str("abc"), str("abd")), "#f"},
		{ast.Call("cons", num(1), ast.Call("cons", num(2), name("empty"))), "(1 2)"},
		{ast.Call("rest", ast.Call("list", num(1), num(2))), "(2)"},
		{ast.Call("equal?", ast.Call("list", num(1), str("a")), ast.ListOf(num(1), str("a"))), "#t"},
		{ast.Call("not", &ast.Boolean{Value: false}), "#t"},
		{ast.Call("empty?", name("empty")), "#t"},
		{name("first"), "#<procedure:first>"},
	}
	e := New()
	for _, tt := range tests {
		val := testEval(t, e, tt.expr)
		if got := val.Inspect(); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.expr, got, tt.want)
		}
	}
}

func TestInspectImproperPair(t *testing.T) {
	p := &Pair{Car: &Num{Value: 1}, Cdr: &Num{Value: 2}}
	if got := p.Inspect(); got != "(1 . 2)" {
		t.Errorf("Inspect = %s, want (1 . 2)", got)
	}
	if got := (&Char{Value: ' '}).Inspect(); got != `#\space` {
		t.Errorf("Inspect = %s", got)
	}
}

func TestSignature(t *testing.T) {
	e := New()
	plus, _ := e.Builtin("+")
	sig, ok := Signature(plus)
	if !ok {
		t.Fatal("expected a signature for +")
	}
	want := typesystem.Func(typesystem.Args(nil, tNum, tNum), tNum)
	if !typesystem.SameType(sig, want) {
		t.Errorf("Signature(+) = %s, want %s", sig, want)
	}
}
