package evaluator

import (
	"math"

	"github.com/funvibe/funblocks/internal/ast"
)

func numberBuiltins() []*ast.Primitive {
	binary := func(name string, op func(a, b float64) (float64, error)) *ast.Primitive {
		return NewPrimitive(name, fixed(param("a", tNum), param("b", tNum)), tNum, func(args, _ []Value) (Value, error) {
			a, err := numArg(name, args[0])
			if err != nil {
				return nil, err
			}
			b, err := numArg(name, args[1])
			if err != nil {
				return nil, err
			}
			r, err := op(a, b)
			if err != nil {
				return nil, err
			}
			return &Num{Value: r}, nil
		})
	}
	compare := func(name string, op func(a, b float64) bool) *ast.Primitive {
		return NewPrimitive(name, fixed(param("a", tNum), param("b", tNum)), tBool, func(args, _ []Value) (Value, error) {
			a, err := numArg(name, args[0])
			if err != nil {
				return nil, err
			}
			b, err := numArg(name, args[1])
			if err != nil {
				return nil, err
			}
			return nativeBool(op(a, b)), nil
		})
	}
	unary := func(name string, op func(x float64) (float64, error)) *ast.Primitive {
		return NewPrimitive(name, fixed(param("x", tNum)), tNum, func(args, _ []Value) (Value, error) {
			x, err := numArg(name, args[0])
			if err != nil {
				return nil, err
			}
			r, err := op(x)
			if err != nil {
				return nil, err
			}
			return &Num{Value: r}, nil
		})
	}
	pure := func(f func(float64) float64) func(float64) (float64, error) {
		return func(x float64) (float64, error) { return f(x), nil }
	}
	integral := func(name string, op func(a, b int) int) func(a, b float64) (float64, error) {
		return func(a, b float64) (float64, error) {
			x, err := intArg(name, &Num{Value: a})
			if err != nil {
				return 0, err
			}
			y, err := intArg(name, &Num{Value: b})
			if err != nil {
				return 0, err
			}
			if y == 0 {
				return 0, newError("%s: undefined for 0", name)
			}
			return float64(op(x, y)), nil
		}
	}

	return []*ast.Primitive{
		binary("+", func(a, b float64) (float64, error) { return a + b, nil }),
		binary("-", func(a, b float64) (float64, error) { return a - b, nil }),
		binary("*", func(a, b float64) (float64, error) { return a * b, nil }),
		binary("/", func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, newError("division by zero")
			}
			return a / b, nil
		}),
		binary("quotient", integral("quotient", func(a, b int) int { return a / b })),
		binary("remainder", integral("remainder", func(a, b int) int { return a % b })),
		binary("modulo", integral("modulo", func(a, b int) int {
			m := a % b
			if m != 0 && (m < 0) != (b < 0) {
				m += b
			}
			return m
		})),

		compare(">", func(a, b float64) bool { return a > b }),
		compare("<", func(a, b float64) bool { return a < b }),
		compare(">=", func(a, b float64) bool { return a >= b }),
		compare("<=", func(a, b float64) bool { return a <= b }),
		compare("=", func(a, b float64) bool { return a == b }),

		unary("abs", pure(math.Abs)),
		unary("sqrt", func(x float64) (float64, error) {
			if x < 0 {
				return 0, newError("sqrt: negative argument %s", ast.FormatNumber(x))
			}
			return math.Sqrt(x), nil
		}),
		unary("exp", pure(math.Exp)),
		unary("log", func(x float64) (float64, error) {
			if x <= 0 {
				return 0, newError("log: argument must be positive, given %s", ast.FormatNumber(x))
			}
			return math.Log(x), nil
		}),
		unary("sgn", pure(func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return 0
		})),
		unary("sqr", pure(func(x float64) float64 { return x * x })),
		unary("ceiling", pure(math.Ceil)),
		unary("floor", pure(math.Floor)),
		unary("round", pure(math.RoundToEven)),
	}
}
