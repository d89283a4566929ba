// Package env provides name binding scopes shared by the evaluator and the
// type checker.
//
// Two variants exist. Persistent environments never change once built;
// extending one allocates a frame that points back at the receiver, so old
// references stay valid and lexical scopes can be captured by closures.
// Mutable environments are a single map frame, used for the long-lived
// top-level and builtin scopes.
package env

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Environment maps names to bindings of type V.
type Environment[V any] interface {
	// Lookup never fails on a miss; ok is false instead.
	Lookup(name string) (V, bool)
	// Extend binds name. Persistent environments return a new environment,
	// mutable ones return the receiver and ignore bindings once frozen.
	Extend(name string, value V) Environment[V]
	// AllBoundNames lists every visible name once, sorted.
	AllBoundNames() []string
}

type frame[V any] struct {
	name   string
	value  V
	parent *frame[V]
}

// Persistent is an immutable chain of single-binding frames over an
// optional base environment.
type Persistent[V any] struct {
	top  *frame[V]
	base Environment[V]
}

// NewPersistent returns an empty persistent environment. base, which may be
// nil, is consulted after every frame.
func NewPersistent[V any](base Environment[V]) *Persistent[V] {
	return &Persistent[V]{base: base}
}

func (p *Persistent[V]) Lookup(name string) (V, bool) {
	for f := p.top; f != nil; f = f.parent {
		if f.name == name {
			return f.value, true
		}
	}
	if p.base != nil {
		return p.base.Lookup(name)
	}
	var zero V
	return zero, false
}

func (p *Persistent[V]) Extend(name string, value V) Environment[V] {
	return p.With(name, value)
}

// With is Extend with the concrete return type.
func (p *Persistent[V]) With(name string, value V) *Persistent[V] {
	return &Persistent[V]{
		top:  &frame[V]{name: name, value: value, parent: p.top},
		base: p.base,
	}
}

func (p *Persistent[V]) AllBoundNames() []string {
	seen := make(map[string]struct{})
	for f := p.top; f != nil; f = f.parent {
		seen[f.name] = struct{}{}
	}
	if p.base != nil {
		for _, name := range p.base.AllBoundNames() {
			seen[name] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Mutable is a single frame updated in place, with an optional parent.
type Mutable[V any] struct {
	store  map[string]V
	parent Environment[V]
	frozen bool
}

func NewMutable[V any](parent Environment[V]) *Mutable[V] {
	return &Mutable[V]{store: make(map[string]V), parent: parent}
}

func (m *Mutable[V]) Lookup(name string) (V, bool) {
	if v, ok := m.store[name]; ok {
		return v, true
	}
	if m.parent != nil {
		return m.parent.Lookup(name)
	}
	var zero V
	return zero, false
}

// Extend binds name in place and returns the receiver. On a frozen frame
// the binding is discarded without error. Callers that must know whether
// the binding happened call Bind.
func (m *Mutable[V]) Extend(name string, value V) Environment[V] {
	_ = m.Bind(name, value)
	return m
}

// Bind is Extend with an error for frozen frames.
func (m *Mutable[V]) Bind(name string, value V) error {
	if m.frozen {
		return fmt.Errorf("cannot bind %q: environment is read-only", name)
	}
	m.store[name] = value
	return nil
}

// Has reports whether name is bound in this frame, ignoring the parent.
func (m *Mutable[V]) Has(name string) bool {
	_, ok := m.store[name]
	return ok
}

// Freeze makes the frame read-only.
func (m *Mutable[V]) Freeze() {
	m.frozen = true
}

func (m *Mutable[V]) Frozen() bool {
	return m.frozen
}

func (m *Mutable[V]) AllBoundNames() []string {
	if m.parent == nil {
		names := maps.Keys(m.store)
		slices.Sort(names)
		return names
	}
	seen := make(map[string]struct{}, len(m.store))
	for name := range m.store {
		seen[name] = struct{}{}
	}
	for _, name := range m.parent.AllBoundNames() {
		seen[name] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	names := maps.Keys(set)
	slices.Sort(names)
	return names
}
