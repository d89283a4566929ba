package evaluator

import (
	"strings"

	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/config"
)

func stringBuiltins() []*ast.Primitive {
	compare := func(name string, op func(a, b string) bool) *ast.Primitive {
		return NewPrimitive(name, fixed(param("a", tStr), param("b", tStr)), tBool, func(args, _ []Value) (Value, error) {
			a, err := strArg(name, args[0])
			if err != nil {
				return nil, err
			}
			b, err := strArg(name, args[1])
			if err != nil {
				return nil, err
			}
			return nativeBool(op(a, b)), nil
		})
	}

	return []*ast.Primitive{
		NewPrimitive("make-string", fixed(param("n", tNum), param("c", tChar)), tStr, func(args, _ []Value) (Value, error) {
			n, err := intArg("make-string", args[0])
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, newError("make-string: negative length %d", n)
			}
			if n > config.MaxStringLength {
				return nil, newError("make-string: length %d too large", n)
			}
			c, err := charArg("make-string", args[1])
			if err != nil {
				return nil, err
			}
			return &Str{Value: strings.Repeat(string(c), n)}, nil
		}),
		NewPrimitive("string", variadic(param("cs", tChar)), tStr, func(_, rest []Value) (Value, error) {
			var out strings.Builder
			for _, v := range rest {
				c, err := charArg("string", v)
				if err != nil {
					return nil, err
				}
				out.WriteRune(c)
			}
			return &Str{Value: out.String()}, nil
		}),
		NewPrimitive("string-length", fixed(param("s", tStr)), tNum, func(args, _ []Value) (Value, error) {
			s, err := strArg("string-length", args[0])
			if err != nil {
				return nil, err
			}
			return &Num{Value: float64(len([]rune(s)))}, nil
		}),
		NewPrimitive("string-ref", fixed(param("s", tStr), param("i", tNum)), tChar, func(args, _ []Value) (Value, error) {
			s, err := strArg("string-ref", args[0])
			if err != nil {
				return nil, err
			}
			i, err := intArg("string-ref", args[1])
			if err != nil {
				return nil, err
			}
			runes := []rune(s)
			if i < 0 || i >= len(runes) {
				return nil, newError("string-ref: index %d out of range for %q", i, s)
			}
			return &Char{Value: runes[i]}, nil
		}),
		NewPrimitive("string-append", variadic(param("ss", tStr)), tStr, func(_, rest []Value) (Value, error) {
			var out strings.Builder
			for _, v := range rest {
				s, err := strArg("string-append", v)
				if err != nil {
					return nil, err
				}
				out.WriteString(s)
			}
			return &Str{Value: out.String()}, nil
		}),
		NewPrimitive("substring", fixed(param("s", tStr), param("start", tNum), param("end", tNum)), tStr, func(args, _ []Value) (Value, error) {
			s, err := strArg("substring", args[0])
			if err != nil {
				return nil, err
			}
			start, err := intArg("substring", args[1])
			if err != nil {
				return nil, err
			}
			end, err := intArg("substring", args[2])
			if err != nil {
				return nil, err
			}
			runes := []rune(s)
			if start < 0 || end > len(runes) || start > end {
				return nil, newError("substring: range [%d, %d) invalid for %q", start, end, s)
			}
			return &Str{Value: string(runes[start:end])}, nil
		}),
		compare("string=?", func(a, b string) bool { return a == b }),
		compare("string<?", func(a, b string) bool { return a < b }),
		compare("string>?", func(a, b string) bool { return a > b }),
		compare("string<=?", func(a, b string) bool { return a <= b }),
		compare("string>=?", func(a, b string) bool { return a >= b }),
	}
}
