// Package blocks defines the block-graph abstraction consumed by the
// generator and the inference engine, and an in-memory workspace that
// implements it for hosts without an editor of their own.
package blocks

import (
	"fmt"
	"strconv"

	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// Shape discriminates block kinds.
type Shape string

const (
	ShapeNumber    Shape = "number"
	ShapeString    Shape = "string"
	ShapeCharacter Shape = "character"
	ShapeBoolean   Shape = "boolean"
	ShapeEmpty     Shape = "empty"
	ShapeCons      Shape = "cons"
	ShapeFirst     Shape = "first"
	ShapeRest      Shape = "rest"
	ShapeList      Shape = "list"
	ShapeApp       Shape = "app"
	ShapeIf        Shape = "if"
	ShapeCond      Shape = "cond"
	ShapeAnd       Shape = "and"
	ShapeOr        Shape = "or"
	ShapeArgument  Shape = "argument"
	ShapeExample   Shape = "example"
)

var shapes = map[Shape]bool{
	ShapeNumber: true, ShapeString: true, ShapeCharacter: true, ShapeBoolean: true,
	ShapeEmpty: true, ShapeCons: true, ShapeFirst: true, ShapeRest: true, ShapeList: true,
	ShapeApp: true, ShapeIf: true, ShapeCond: true, ShapeAnd: true, ShapeOr: true,
	ShapeArgument: true, ShapeExample: true,
}

func (s Shape) Valid() bool { return shapes[s] }

// IsLiteral reports whether blocks of this shape carry a literal value.
func (s Shape) IsLiteral() bool {
	switch s {
	case ShapeNumber, ShapeString, ShapeCharacter, ShapeBoolean:
		return true
	}
	return false
}

// Input is a named input slot and the type it requires.
type Input struct {
	Name string
	Type typesystem.Type
}

// Signature describes the callee of an application block.
type Signature struct {
	Name   string
	Params []ast.Param
	Rest   *ast.Param
	Return typesystem.Type
}

// NewSignature builds a signature from an argument spec.
func NewSignature(name string, spec *ast.ArgumentSpec, ret typesystem.Type) *Signature {
	if ret == nil {
		ret = typesystem.Unknown{}
	}
	return &Signature{Name: name, Params: spec.Positional, Rest: spec.Rest, Return: ret}
}

// Args is the arguments type of the callee.
func (s *Signature) Args() typesystem.Arguments {
	return ast.NewSpec(s.Rest, s.Params...).Type()
}

// Meta is shape-specific block data.
type Meta struct {
	// Literal is the source text of literal blocks.
	Literal string
	// Name is the parameter name of argument blocks.
	Name string
	// Type is the declared type of argument blocks.
	Type typesystem.Type
	// Callee is the function applied by app blocks.
	Callee *Signature
	// RestCount is the number of variadic slots of list, and, or and app blocks.
	RestCount int
	// ClauseCount is the number of test/body pairs of cond blocks.
	ClauseCount int
	// HasElse reports whether a cond block has an else slot.
	HasElse bool
}

// Node is a block as seen by the generator and the inference engine.
type Node interface {
	ID() string
	Shape() Shape
	// OutputType is nil for statement blocks.
	OutputType() typesystem.Type
	Inputs() []Input
	// Child returns nil when the input is a hole.
	Child(input string) Node
	Meta() Meta
}

// Graph gives access to blocks by ID and to their parents.
type Graph interface {
	Node(id string) (Node, bool)
	Parent(id string) (parent Node, input string, ok bool)
	Roots() []Node
}

func RestArgInput(i int) string   { return config.RestArgPrefix + strconv.Itoa(i) }
func ConditionInput(i int) string { return config.ConditionInput + strconv.Itoa(i) }
func BodyInput(i int) string      { return config.BodyInput + strconv.Itoa(i) }

var listOfUnknown = typesystem.List{Element: typesystem.Unknown{}}

// OutputTypeFor returns the declared output type of a block.
func OutputTypeFor(shape Shape, meta Meta) typesystem.Type {
	switch shape {
	case ShapeNumber:
		return typesystem.Number{}
	case ShapeString:
		return typesystem.String{}
	case ShapeCharacter:
		return typesystem.Character{}
	case ShapeBoolean, ShapeAnd, ShapeOr:
		return typesystem.Boolean{}
	case ShapeEmpty, ShapeCons, ShapeRest, ShapeList:
		return listOfUnknown
	case ShapeFirst, ShapeIf, ShapeCond:
		return typesystem.Unknown{}
	case ShapeApp:
		if meta.Callee == nil {
			return typesystem.Unknown{}
		}
		return meta.Callee.Return
	case ShapeArgument:
		if meta.Type == nil {
			return typesystem.Unknown{}
		}
		return meta.Type
	}
	return nil
}

// InputsFor returns the input slots of a block in display order.
func InputsFor(shape Shape, meta Meta) []Input {
	unknown := typesystem.Unknown{}
	boolean := typesystem.Boolean{}
	switch shape {
	case ShapeCons:
		return []Input{{config.CarInput, unknown}, {config.CdrInput, listOfUnknown}}
	case ShapeFirst, ShapeRest:
		return []Input{{config.ListArgInput, listOfUnknown}}
	case ShapeList:
		return restInputs(meta.RestCount, unknown)
	case ShapeAnd, ShapeOr:
		return restInputs(meta.RestCount, boolean)
	case ShapeApp:
		if meta.Callee == nil {
			return nil
		}
		inputs := make([]Input, 0, len(meta.Callee.Params)+meta.RestCount)
		for _, p := range meta.Callee.Params {
			inputs = append(inputs, Input{p.Name, declared(p.Type)})
		}
		if meta.Callee.Rest != nil {
			inputs = append(inputs, restInputs(meta.RestCount, declared(meta.Callee.Rest.Type))...)
		}
		return inputs
	case ShapeIf:
		return []Input{{config.PredInput, boolean}, {config.ThenInput, unknown}, {config.ElseExprInput, unknown}}
	case ShapeCond:
		inputs := make([]Input, 0, 2*meta.ClauseCount+1)
		for i := 0; i < meta.ClauseCount; i++ {
			inputs = append(inputs, Input{ConditionInput(i), boolean}, Input{BodyInput(i), unknown})
		}
		if meta.HasElse {
			inputs = append(inputs, Input{config.ElseInput, unknown})
		}
		return inputs
	case ShapeExample:
		return []Input{{config.ExprInput, unknown}, {config.ResultInput, unknown}}
	}
	return nil
}

func restInputs(n int, t typesystem.Type) []Input {
	inputs := make([]Input, n)
	for i := range inputs {
		inputs[i] = Input{RestArgInput(i), t}
	}
	return inputs
}

func declared(t typesystem.Type) typesystem.Type {
	if t == nil {
		return typesystem.Unknown{}
	}
	return t
}

// ValidateMeta checks the shape-specific data a block needs.
func ValidateMeta(shape Shape, meta Meta) error {
	if !shape.Valid() {
		return fmt.Errorf("unknown block shape %q", shape)
	}
	switch shape {
	case ShapeApp:
		if meta.Callee == nil {
			return fmt.Errorf("app block needs a callee")
		}
		if meta.Callee.Rest == nil && meta.RestCount > 0 {
			return fmt.Errorf("%s takes no rest arguments", meta.Callee.Name)
		}
	case ShapeArgument:
		if meta.Name == "" {
			return fmt.Errorf("argument block needs a name")
		}
	case ShapeNumber, ShapeCharacter, ShapeBoolean:
		if meta.Literal != "" {
			if _, err := ParseLiteral(shape, meta.Literal); err != nil {
				return err
			}
		}
	}
	if meta.RestCount < 0 || meta.ClauseCount < 0 {
		return fmt.Errorf("slot counts must not be negative")
	}
	return nil
}
