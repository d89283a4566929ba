package evaluator

import (
	"github.com/funvibe/funblocks/internal/diagnostics"
)

func newError(format string, a ...interface{}) *diagnostics.DiagnosticError {
	return diagnostics.NewError(diagnostics.RuntimeFailure, format, a...)
}

func typeError(name string, want string, got Value) *diagnostics.DiagnosticError {
	return diagnostics.NewError(diagnostics.TypeMismatch, "%s expects %s, given %s", name, want, got.Inspect())
}

func numArg(name string, v Value) (float64, error) {
	n, ok := v.(*Num)
	if !ok {
		return 0, typeError(name, "a number", v)
	}
	return n.Value, nil
}

func strArg(name string, v Value) (string, error) {
	s, ok := v.(*Str)
	if !ok {
		return "", typeError(name, "a string", v)
	}
	return s.Value, nil
}

func charArg(name string, v Value) (rune, error) {
	c, ok := v.(*Char)
	if !ok {
		return 0, typeError(name, "a character", v)
	}
	return c.Value, nil
}

func boolArg(name string, v Value) (bool, error) {
	b, ok := v.(*Boolean)
	if !ok {
		return false, typeError(name, "a boolean", v)
	}
	return b.Value, nil
}

// intArg accepts numbers with no fractional part.
func intArg(name string, v Value) (int, error) {
	f, err := numArg(name, v)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, typeError(name, "an integer", v)
	}
	return int(f), nil
}

func pairArg(name string, v Value) (*Pair, error) {
	p, ok := v.(*Pair)
	if !ok {
		return nil, typeError(name, "a non-empty list", v)
	}
	return p, nil
}
