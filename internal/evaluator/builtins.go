package evaluator

import (
	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// BuiltinFunction receives the fixed positional arguments and the overflow
// collected for a rest parameter.
type BuiltinFunction func(args []Value, rest []Value) (Value, error)

// Builtin is the native implementation behind a Primitive.
type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) NativeName() string { return b.Name }

// NewPrimitive builds a primitive expression over a native function.
func NewPrimitive(name string, spec *ast.ArgumentSpec, ret typesystem.Type, fn BuiltinFunction) *ast.Primitive {
	return &ast.Primitive{
		Name:   name,
		Spec:   spec,
		Impl:   &Builtin{Name: name, Fn: fn},
		Return: ret,
	}
}

var (
	tUnknown = typesystem.Unknown{}
	tBool    = typesystem.Boolean{}
	tNum     = typesystem.Number{}
	tStr     = typesystem.String{}
	tChar    = typesystem.Character{}
	tList    = typesystem.List{Element: typesystem.Unknown{}}
)

func param(name string, t typesystem.Type) ast.Param {
	return ast.Param{Name: name, Type: t}
}

func fixed(params ...ast.Param) *ast.ArgumentSpec {
	return ast.NewSpec(nil, params...)
}

func variadic(rest ast.Param, params ...ast.Param) *ast.ArgumentSpec {
	return ast.NewSpec(&rest, params...)
}

// Signature returns the function type of a callable value.
func Signature(v Value) (typesystem.Function, bool) {
	switch v := v.(type) {
	case *Primitive:
		ret := typesystem.Type(tUnknown)
		if v.Source != nil && v.Source.Return != nil {
			ret = v.Source.Return
		}
		return typesystem.Func(v.Spec.Type(), ret), true
	case *Closure:
		ret := v.Lambda.Return
		if ret == nil {
			ret = tUnknown
		}
		return typesystem.Func(v.Lambda.Spec.Type(), ret), true
	}
	return typesystem.Function{}, false
}

func installStdlib(e *Evaluator) {
	groups := [][]*ast.Primitive{listBuiltins(), numberBuiltins(), stringBuiltins()}
	for _, group := range groups {
		for _, p := range group {
			if err := e.AddBuiltin(p.Name, p); err != nil {
				panic(err)
			}
		}
	}
	if err := e.builtins.Bind(config.EmptyName, EMPTY); err != nil {
		panic(err)
	}
	for _, def := range prelude() {
		val, err := e.eval(def, e.builtins)
		if err != nil {
			panic(err)
		}
		if err := e.builtins.Bind(def.Name, val); err != nil {
			panic(err)
		}
	}
}

// prelude holds builtins written in the language itself. Their closures
// capture the builtin scope.
func prelude() []*ast.Lambda {
	x := &ast.Name{Value: "x"}
	f := &ast.Name{Value: "f"}
	ls := &ast.Name{Value: "ls"}

	isList := &ast.Lambda{
		Name: config.IsListFuncName,
		Spec: fixed(param("x", tUnknown)),
		Body: &ast.Or{Args: []ast.Expression{
			ast.Call("empty?", x),
			&ast.And{Args: []ast.Expression{
				ast.Call("pair?", x),
				ast.Call(config.IsListFuncName, ast.Call(config.RestFuncName, x)),
			}},
		}},
		Return: tBool,
	}

	mapper := typesystem.Func(typesystem.Args(nil, tUnknown), tUnknown)
	mapList := &ast.Lambda{
		Name: config.MapFuncName,
		Spec: fixed(param("f", mapper), param("ls", tList)),
		Body: &ast.If{
			Test: ast.Call("empty?", ls),
			Then: &ast.Name{Value: config.EmptyName},
			Else: ast.Call(config.ConsFuncName,
				&ast.App{Fn: f, Args: &ast.Arguments{Positional: []ast.Expression{ast.Call(config.FirstFuncName, ls)}}},
				ast.Call(config.MapFuncName, f, ast.Call(config.RestFuncName, ls)),
			),
		},
		Return: tList,
	}

	return []*ast.Lambda{isList, mapList}
}
