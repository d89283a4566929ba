// Package workspace reads YAML workspace documents into block graphs and
// turns document changes into block edits.
package workspace

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/typesystem"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a workspace.
type Document struct {
	Version string      `yaml:"version"`
	Blocks  []BlockSpec `yaml:"blocks"`
	// Expect maps root block IDs to the type their context requires.
	Expect map[string]string `yaml:"expect,omitempty"`
	// Functions are bound at top level before any block runs.
	Functions []FunctionSpec `yaml:"functions,omitempty"`
}

// FunctionSpec declares a user function. Body is the ID of the root block
// computing its result; argument blocks inside it name the parameters.
type FunctionSpec struct {
	Name   string      `yaml:"name"`
	Params []ParamSpec `yaml:"params,omitempty"`
	Return string      `yaml:"return,omitempty"`
	Body   string      `yaml:"body"`
}

type ParamSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// Spec parses the declared parameter and return types. Missing types are
// Unknown.
func (f FunctionSpec) Spec() (*ast.ArgumentSpec, typesystem.Type, error) {
	params := make([]ast.Param, 0, len(f.Params))
	for _, p := range f.Params {
		t, err := typesystem.Parse(p.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("function %s: parameter %s: %w", f.Name, p.Name, err)
		}
		params = append(params, ast.Param{Name: p.Name, Type: t})
	}
	ret, err := typesystem.Parse(f.Return)
	if err != nil {
		return nil, nil, fmt.Errorf("function %s: return type: %w", f.Name, err)
	}
	return ast.NewSpec(nil, params...), ret, nil
}

// Function returns the function whose body is the block id.
func (d *Document) Function(bodyID string) (FunctionSpec, bool) {
	return lo.Find(d.Functions, func(f FunctionSpec) bool { return f.Body == bodyID })
}

// Expectations merges the expect section with the declared return types
// of function bodies.
func (d *Document) Expectations() map[string]string {
	out := make(map[string]string, len(d.Expect)+len(d.Functions))
	for id, t := range d.Expect {
		out[id] = t
	}
	for _, f := range d.Functions {
		if f.Return != "" {
			out[f.Body] = f.Return
		}
	}
	return out
}

// BlockSpec describes one block. Inputs maps input names to child IDs.
type BlockSpec struct {
	ID      string            `yaml:"id"`
	Shape   string            `yaml:"shape"`
	Literal string            `yaml:"literal,omitempty"`
	Name    string            `yaml:"name,omitempty"`
	Type    string            `yaml:"type,omitempty"`
	Callee  string            `yaml:"callee,omitempty"`
	Rest    int               `yaml:"rest,omitempty"`
	Clauses int               `yaml:"clauses,omitempty"`
	Else    bool              `yaml:"else,omitempty"`
	Inputs  map[string]string `yaml:"inputs,omitempty"`
}

// sameBlock reports whether a and b describe the same block apart from its
// literal and connections.
func sameBlock(a, b BlockSpec) bool {
	return a.ID == b.ID && a.Shape == b.Shape && a.Name == b.Name && a.Type == b.Type &&
		a.Callee == b.Callee && a.Rest == b.Rest && a.Clauses == b.Clauses && a.Else == b.Else
}

var supported = mustConstraint(config.SupportedWorkspaceVersions)

func mustConstraint(expr string) *semver.Constraints {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		panic(err)
	}
	return c
}

// ReadDocument loads and parses a workspace file.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workspace %s: %w", path, err)
	}
	return ParseDocument(data, path)
}

// ParseDocument parses workspace YAML. The path is used only for error messages.
func ParseDocument(data []byte, path string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := checkVersion(doc.Version); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &doc, nil
}

func checkVersion(v string) error {
	if v == "" {
		return fmt.Errorf("missing version")
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", v, err)
	}
	if !supported.Check(version) {
		return fmt.Errorf("version %s is not supported (want %s)", v, config.SupportedWorkspaceVersions)
	}
	return nil
}

func (d *Document) validate() error {
	ids := make(map[string]bool, len(d.Blocks))
	for _, b := range d.Blocks {
		if b.ID == "" {
			return fmt.Errorf("block without id")
		}
		if ids[b.ID] {
			return fmt.Errorf("duplicate block id %s", b.ID)
		}
		if !blocks.Shape(b.Shape).Valid() {
			return fmt.Errorf("block %s: unknown shape %q", b.ID, b.Shape)
		}
		ids[b.ID] = true
	}
	children := make(map[string]string)
	for _, b := range d.Blocks {
		for input, child := range b.Inputs {
			if !ids[child] {
				return fmt.Errorf("block %s: input %s refers to unknown block %s", b.ID, input, child)
			}
			if parent, taken := children[child]; taken {
				return fmt.Errorf("block %s is connected to both %s and %s", child, parent, b.ID)
			}
			children[child] = b.ID
		}
	}
	for id := range d.Expect {
		if !ids[id] {
			return fmt.Errorf("expect refers to unknown block %s", id)
		}
	}
	return d.validateFunctions(ids, children)
}

func (d *Document) validateFunctions(ids map[string]bool, children map[string]string) error {
	names := make(map[string]bool, len(d.Functions))
	bodies := make(map[string]string, len(d.Functions))
	for _, f := range d.Functions {
		if f.Name == "" {
			return fmt.Errorf("function without name")
		}
		if names[f.Name] {
			return fmt.Errorf("duplicate function %s", f.Name)
		}
		names[f.Name] = true
		if !ids[f.Body] {
			return fmt.Errorf("function %s: body refers to unknown block %s", f.Name, f.Body)
		}
		if parent, ok := children[f.Body]; ok {
			return fmt.Errorf("function %s: body %s is connected to %s", f.Name, f.Body, parent)
		}
		if other, ok := bodies[f.Body]; ok {
			return fmt.Errorf("block %s is the body of both %s and %s", f.Body, other, f.Name)
		}
		bodies[f.Body] = f.Name
		if _, ok := d.Expect[f.Body]; ok && f.Return != "" {
			return fmt.Errorf("function %s: body %s also has an expectation", f.Name, f.Body)
		}
		params := make(map[string]bool, len(f.Params))
		for _, p := range f.Params {
			if p.Name == "" || params[p.Name] {
				return fmt.Errorf("function %s: invalid or duplicate parameter %q", f.Name, p.Name)
			}
			params[p.Name] = true
		}
		if _, _, err := f.Spec(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) block(id string) (BlockSpec, bool) {
	for _, b := range d.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return BlockSpec{}, false
}
