package evaluator

import (
	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/config"
)

func listBuiltins() []*ast.Primitive {
	predicate := func(name string, test func(Value) bool) *ast.Primitive {
		return NewPrimitive(name, fixed(param("x", tUnknown)), tBool, func(args, _ []Value) (Value, error) {
			return nativeBool(test(args[0])), nil
		})
	}

	return []*ast.Primitive{
		predicate("boolean?", func(v Value) bool { _, ok := v.(*Boolean); return ok }),
		predicate("pair?", func(v Value) bool { _, ok := v.(*Pair); return ok }),
		predicate("number?", func(v Value) bool { _, ok := v.(*Num); return ok }),
		predicate("string?", func(v Value) bool { _, ok := v.(*Str); return ok }),
		predicate("char?", func(v Value) bool { _, ok := v.(*Char); return ok }),
		predicate("empty?", func(v Value) bool { _, ok := v.(*Empty); return ok }),

		NewPrimitive(config.FirstFuncName, fixed(param("x", tList)), tUnknown, func(args, _ []Value) (Value, error) {
			p, err := pairArg(config.FirstFuncName, args[0])
			if err != nil {
				return nil, err
			}
			return p.Car, nil
		}),
		NewPrimitive(config.RestFuncName, fixed(param("x", tList)), tList, func(args, _ []Value) (Value, error) {
			p, err := pairArg(config.RestFuncName, args[0])
			if err != nil {
				return nil, err
			}
			return p.Cdr, nil
		}),
		NewPrimitive(config.ConsFuncName, fixed(param("car", tUnknown), param("cdr", tList)), tList, func(args, _ []Value) (Value, error) {
			switch args[1].(type) {
			case *Pair, *Empty:
				return &Pair{Car: args[0], Cdr: args[1]}, nil
			}
			return nil, typeError(config.ConsFuncName, "a list as second argument", args[1])
		}),
		NewPrimitive(config.ListFuncName, variadic(param("xs", tUnknown)), tList, func(_, rest []Value) (Value, error) {
			return ListFromSlice(rest), nil
		}),
		NewPrimitive("not", fixed(param("x", tBool)), tBool, func(args, _ []Value) (Value, error) {
			b, err := boolArg("not", args[0])
			if err != nil {
				return nil, err
			}
			return nativeBool(!b), nil
		}),
		NewPrimitive(config.EqualFuncName, fixed(param("a", tUnknown), param("b", tUnknown)), tBool, func(args, _ []Value) (Value, error) {
			return nativeBool(Equal(args[0], args[1])), nil
		}),
	}
}
