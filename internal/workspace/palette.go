package workspace

import (
	"fmt"

	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/evaluator"
	"github.com/funvibe/funblocks/internal/typesystem"
	"github.com/samber/lo"
)

// Palette lists the functions app blocks may call.
type Palette struct {
	sigs map[string]*blocks.Signature
}

// NewPalette collects every callable bound in the evaluator's global scope.
func NewPalette(e *evaluator.Evaluator) *Palette {
	p := &Palette{sigs: make(map[string]*blocks.Signature)}
	globals := e.Globals()
	for _, name := range globals.AllBoundNames() {
		v, _ := globals.Lookup(name)
		fn, ok := evaluator.Signature(v)
		if !ok {
			continue
		}
		var spec *ast.ArgumentSpec
		switch v := v.(type) {
		case *evaluator.Primitive:
			spec = v.Spec
		case *evaluator.Closure:
			spec = v.Lambda.Spec
		}
		p.sigs[name] = blocks.NewSignature(name, spec, fn.Return)
	}
	return p
}

// AddFunctions makes user functions callable from app blocks. A function
// named like a builtin shadows it, as a top-level definition does.
func (p *Palette) AddFunctions(fns []FunctionSpec) error {
	for _, f := range fns {
		spec, ret, err := f.Spec()
		if err != nil {
			return err
		}
		p.sigs[f.Name] = blocks.NewSignature(f.Name, spec, ret)
	}
	return nil
}

func (p *Palette) Signature(name string) (*blocks.Signature, bool) {
	sig, ok := p.sigs[name]
	return sig, ok
}

// Names returns the callable names in sorted order.
func (p *Palette) Names() []string {
	names := lo.Keys(p.sigs)
	sortStrings(names)
	return names
}

// Meta resolves a block description into block metadata.
func (p *Palette) Meta(spec BlockSpec) (blocks.Meta, error) {
	meta := blocks.Meta{
		Literal:     spec.Literal,
		Name:        spec.Name,
		RestCount:   spec.Rest,
		ClauseCount: spec.Clauses,
		HasElse:     spec.Else,
	}
	if spec.Type != "" {
		t, err := typesystem.Parse(spec.Type)
		if err != nil {
			return meta, fmt.Errorf("block %s: %w", spec.ID, err)
		}
		meta.Type = t
	}
	if spec.Callee != "" {
		sig, ok := p.Signature(spec.Callee)
		if !ok {
			return meta, fmt.Errorf("block %s: unknown function %s", spec.ID, spec.Callee)
		}
		meta.Callee = sig
	}
	return meta, nil
}
