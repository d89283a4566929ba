package typesystem

import (
	"strings"

	"github.com/funvibe/funblocks/internal/config"
	"github.com/samber/lo"
)

// Type is the interface for all types in our system.
// Variants are immutable values; Clone returns an independent copy.
type Type interface {
	String() string
	// Key is the base-type name used by the colour table.
	Key() string
	Clone() Type
	isType()
}

// Unknown is the wildcard type. It matches anything and is the identity of Principal.
type Unknown struct{}

type Boolean struct{}

type Number struct{}

type String struct{}

type Character struct{}

// List is a homogeneous list of Element.
type List struct {
	Element Type
}

// ListOfTypes is a fixed-arity heterogeneous sequence, used for positional arguments.
type ListOfTypes struct {
	Types []Type
}

// NArity is a homogeneous variable-arity tail.
type NArity struct {
	Element Type
}

// Arguments describes what a callable accepts. Rest is nil when the
// callable takes no rest argument.
type Arguments struct {
	Positional ListOfTypes
	Rest       *NArity
}

type Function struct {
	Args   Arguments
	Return Type
}

func (Unknown) isType()     {}
func (Boolean) isType()     {}
func (Number) isType()      {}
func (String) isType()      {}
func (Character) isType()   {}
func (List) isType()        {}
func (ListOfTypes) isType() {}
func (NArity) isType()      {}
func (Arguments) isType()   {}
func (Function) isType()    {}

func (Unknown) Key() string     { return config.UnknownTypeKey }
func (Boolean) Key() string     { return config.BooleanTypeKey }
func (Number) Key() string      { return config.NumberTypeKey }
func (String) Key() string      { return config.StringTypeKey }
func (Character) Key() string   { return config.CharacterTypeKey }
func (List) Key() string        { return config.ListTypeKey }
func (ListOfTypes) Key() string { return config.ListOfTypesTypeKey }
func (NArity) Key() string      { return config.NArityTypeKey }
func (Arguments) Key() string   { return config.ArgumentsTypeKey }
func (Function) Key() string    { return config.FunctionTypeKey }

func (Unknown) String() string   { return "???" }
func (Boolean) String() string   { return "Boolean" }
func (Number) String() string    { return "Number" }
func (String) String() string    { return "String" }
func (Character) String() string { return "Character" }

func (t List) String() string {
	return "(Listof " + t.Element.String() + ")"
}

func (t ListOfTypes) String() string {
	return strings.Join(lo.Map(t.Types, func(e Type, _ int) string { return e.String() }), " ")
}

func (t NArity) String() string {
	return t.Element.String() + " ..."
}

func (t Arguments) String() string {
	parts := make([]string, 0, 2)
	if len(t.Positional.Types) > 0 {
		parts = append(parts, t.Positional.String())
	}
	if t.Rest != nil {
		parts = append(parts, t.Rest.String())
	}
	return strings.Join(parts, " ")
}

func (t Function) String() string {
	args := t.Args.String()
	if args == "" {
		return "(-> " + t.Return.String() + ")"
	}
	return "(" + args + " -> " + t.Return.String() + ")"
}

func (t Unknown) Clone() Type   { return t }
func (t Boolean) Clone() Type   { return t }
func (t Number) Clone() Type    { return t }
func (t String) Clone() Type    { return t }
func (t Character) Clone() Type { return t }

func (t List) Clone() Type {
	return List{Element: t.Element.Clone()}
}

func (t ListOfTypes) Clone() Type {
	return t.cloneTuple()
}

func (t ListOfTypes) cloneTuple() ListOfTypes {
	return ListOfTypes{Types: lo.Map(t.Types, func(e Type, _ int) Type { return e.Clone() })}
}

func (t NArity) Clone() Type {
	return NArity{Element: t.Element.Clone()}
}

func (t Arguments) Clone() Type {
	return t.cloneArgs()
}

func (t Arguments) cloneArgs() Arguments {
	out := Arguments{Positional: t.Positional.cloneTuple()}
	if t.Rest != nil {
		out.Rest = &NArity{Element: t.Rest.Element.Clone()}
	}
	return out
}

func (t Function) Clone() Type {
	return Function{Args: t.Args.cloneArgs(), Return: t.Return.Clone()}
}

// Tuple builds a ListOfTypes from its members.
func Tuple(types ...Type) ListOfTypes {
	return ListOfTypes{Types: types}
}

// Args builds an Arguments type; rest may be nil.
func Args(rest Type, positional ...Type) Arguments {
	a := Arguments{Positional: Tuple(positional...)}
	if rest != nil {
		a.Rest = &NArity{Element: rest}
	}
	return a
}

// Func builds a Function type.
func Func(args Arguments, ret Type) Function {
	return Function{Args: args, Return: ret}
}

// IsUnknown reports whether t is nil or Unknown.
func IsUnknown(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(Unknown)
	return ok
}

// ElementOf returns the element type of a List, Unknown for Unknown,
// and false for anything else.
func ElementOf(t Type) (Type, bool) {
	switch t := t.(type) {
	case List:
		return t.Element, true
	case Unknown:
		return Unknown{}, true
	case nil:
		return Unknown{}, true
	default:
		return nil, false
	}
}

// BaseTypes lists the atomic base types in registration order.
func BaseTypes() []Type {
	return []Type{Boolean{}, Number{}, String{}, Character{}}
}
