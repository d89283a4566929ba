package evaluator

import (
	"sort"
)

// Equal is structural equality on data values. Procedures are equal only
// to themselves.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case *Empty:
		_, ok := b.(*Empty)
		return ok
	case *Boolean:
		y, ok := b.(*Boolean)
		return ok && x.Value == y.Value
	case *Num:
		y, ok := b.(*Num)
		return ok && x.Value == y.Value
	case *Str:
		y, ok := b.(*Str)
		return ok && x.Value == y.Value
	case *Char:
		y, ok := b.(*Char)
		return ok && x.Value == y.Value
	case *Pair:
		y, ok := b.(*Pair)
		return ok && Equal(x.Car, y.Car) && Equal(x.Cdr, y.Cdr)
	case *Primitive:
		y, ok := b.(*Primitive)
		return ok && x.Builtin == y.Builtin
	case *Closure:
		return a == b
	case *ArgumentSpec:
		y, ok := b.(*ArgumentSpec)
		return ok && x.Spec == y.Spec
	case *Arguments:
		y, ok := b.(*Arguments)
		if !ok || len(x.Positional) != len(y.Positional) || len(x.Keyword) != len(y.Keyword) {
			return false
		}
		for i := range x.Positional {
			if !Equal(x.Positional[i], y.Positional[i]) {
				return false
			}
		}
		for k, v := range x.Keyword {
			w, ok := y.Keyword[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	return false
}

func sortedNames(m map[string]Value) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
