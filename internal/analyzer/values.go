package analyzer

import (
	"github.com/funvibe/funblocks/internal/evaluator"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// TypeOfValue returns the type of a runtime value. Lists get the principal
// type of their elements, or Unknown elements when those disagree.
func TypeOfValue(v evaluator.Value) typesystem.Type {
	switch v := v.(type) {
	case *evaluator.Num:
		return typesystem.Number{}
	case *evaluator.Str:
		return typesystem.String{}
	case *evaluator.Char:
		return typesystem.Character{}
	case *evaluator.Boolean:
		return typesystem.Boolean{}
	case *evaluator.Empty:
		return typesystem.List{Element: typesystem.Unknown{}}
	case *evaluator.Pair:
		elems, ok := evaluator.SliceFromList(v)
		if !ok {
			return typesystem.Unknown{}
		}
		types := make([]typesystem.Type, len(elems))
		for i, e := range elems {
			types[i] = TypeOfValue(e)
		}
		elem, err := typesystem.PrincipalOf(types...)
		if err != nil {
			elem = typesystem.Unknown{}
		}
		return typesystem.List{Element: elem}
	case *evaluator.Primitive, *evaluator.Closure:
		sig, _ := evaluator.Signature(v)
		return sig
	case *evaluator.ArgumentSpec:
		return v.Spec.Type()
	}
	return typesystem.Unknown{}
}
