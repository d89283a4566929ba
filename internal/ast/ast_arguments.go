package ast

import (
	"sort"
	"strings"

	"github.com/funvibe/funblocks/internal/diagnostics"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// Param is a formal parameter. For a rest parameter Type is the element type.
type Param struct {
	Name string
	Type typesystem.Type
}

// ArgumentSpec is the formal parameter shape of a callable.
type ArgumentSpec struct {
	Located
	Positional []Param
	Rest       *Param
	Keyword    map[string]typesystem.Type
}

// Arguments are the actual arguments of an application. Positional holds
// fixed and overflow (rest) arguments in source order.
type Arguments struct {
	Located
	Positional []Expression
	Keyword    map[string]Expression
}

func (s *ArgumentSpec) expressionNode() {}
func (a *Arguments) expressionNode()    {}

// NewSpec builds a spec without keywords. rest may be nil.
func NewSpec(rest *Param, positional ...Param) *ArgumentSpec {
	return &ArgumentSpec{Positional: positional, Rest: rest}
}

// Accepts validates the shape of a call: the positional count and the exact
// set of keyword names.
func (s *ArgumentSpec) Accepts(positional int, keywords []string) error {
	fixed := len(s.Positional)
	switch {
	case s.Rest == nil && positional != fixed:
		return diagnostics.NewError(diagnostics.ArityMismatch, "expects %d argument(s), got %d", fixed, positional)
	case s.Rest != nil && positional < fixed:
		return diagnostics.NewError(diagnostics.ArityMismatch, "expects at least %d argument(s), got %d", fixed, positional)
	}
	if len(keywords) != len(s.Keyword) {
		return diagnostics.NewError(diagnostics.ArityMismatch, "expects keywords {%s}, got {%s}",
			strings.Join(s.KeywordNames(), " "), strings.Join(keywords, " "))
	}
	for _, kw := range keywords {
		if _, ok := s.Keyword[kw]; !ok {
			return diagnostics.NewError(diagnostics.ArityMismatch, "unexpected keyword argument %s", kw)
		}
	}
	return nil
}

// Type returns the Arguments type s accepts. Keywords do not take
// part in the type.
func (s *ArgumentSpec) Type() typesystem.Arguments {
	types := make([]typesystem.Type, len(s.Positional))
	for i, p := range s.Positional {
		types[i] = paramType(p.Type)
	}
	var rest typesystem.Type
	if s.Rest != nil {
		rest = paramType(s.Rest.Type)
	}
	return typesystem.Args(rest, types...)
}

func paramType(t typesystem.Type) typesystem.Type {
	if t == nil {
		return typesystem.Unknown{}
	}
	return t
}

// KeywordNames returns the keyword parameter names, sorted.
func (s *ArgumentSpec) KeywordNames() []string {
	names := make([]string, 0, len(s.Keyword))
	for name := range s.Keyword {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *ArgumentSpec) String() string {
	parts := make([]string, 0, len(s.Positional)+2)
	for _, p := range s.Positional {
		parts = append(parts, p.Name)
	}
	for _, kw := range s.KeywordNames() {
		parts = append(parts, "#:"+kw)
	}
	out := "(" + strings.Join(parts, " ")
	if s.Rest != nil {
		if len(parts) > 0 {
			out += " "
		}
		out += ". " + s.Rest.Name
	}
	return out + ")"
}

// KeywordNames returns the keyword argument names, sorted.
func (a *Arguments) KeywordNames() []string {
	names := make([]string, 0, len(a.Keyword))
	for name := range a.Keyword {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Arguments) String() string {
	parts := make([]string, 0, len(a.Positional)+len(a.Keyword))
	for _, arg := range a.Positional {
		parts = append(parts, arg.String())
	}
	for _, kw := range a.KeywordNames() {
		parts = append(parts, "#:"+kw+" "+a.Keyword[kw].String())
	}
	return strings.Join(parts, " ")
}
