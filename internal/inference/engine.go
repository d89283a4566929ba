// Package inference keeps the types of an editable, possibly incomplete
// block graph up to date. Every edit resynchronizes the constraint group
// that owns the edited slot and propagates outward and inward until no
// inferred type changes.
package inference

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/diagnostics"
	"github.com/funvibe/funblocks/internal/typesystem"
	"github.com/samber/lo"
)

// Engine owns the per-connection inference state of one graph. It is not
// safe for concurrent use; edits must be handled one at a time.
type Engine struct {
	graph    blocks.Graph
	nodes    map[string]*nodeState
	expected map[string]typesystem.Type
	clock    uint64
	maxSteps int
	logger   *slog.Logger
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxSteps bounds one propagation pass to n resyncs per group.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// New registers every block reachable from the graph's roots and runs an
// initial check.
func New(graph blocks.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:    graph,
		nodes:    make(map[string]*nodeState),
		expected: make(map[string]typesystem.Type),
		maxSteps: config.MaxInferenceSteps,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, root := range graph.Roots() {
		blocks.Walk(root, func(n blocks.Node) {
			e.nodes[n.ID()] = newNodeState(n)
		})
	}
	for _, root := range graph.Roots() {
		blocks.Walk(root, func(n blocks.Node) {
			for _, in := range n.Inputs() {
				if child := n.Child(in.Name); child != nil {
					e.stamp(n.ID(), in.Name, child.ID())
				}
			}
		})
	}
	e.Recheck()
	return e
}

// stamp marks both ends of a newly attached wire with the next sequence number.
func (e *Engine) stamp(parentID, input, childID string) {
	e.clock++
	if ps, ok := e.nodes[parentID]; ok {
		if c, ok := ps.inputs[input]; ok {
			c.seq = e.clock
		}
	}
	if cs, ok := e.nodes[childID]; ok && cs.output != nil {
		cs.output.seq = e.clock
	}
}

// HandleEvent applies one edit notification.
func (e *Engine) HandleEvent(ev blocks.Event) error {
	switch ev.Kind {
	case blocks.EventCreated:
		n, ok := e.graph.Node(ev.NodeID)
		if !ok {
			return fmt.Errorf("created block %s is not in the graph", ev.NodeID)
		}
		e.nodes[ev.NodeID] = newNodeState(n)
		return e.refresh(nil, ev.NodeID)
	case blocks.EventRemoved:
		delete(e.nodes, ev.NodeID)
		delete(e.expected, ev.NodeID)
		return nil
	case blocks.EventAttach:
		slot, err := e.slot(ev.NodeID, ev.Input)
		if err != nil {
			return err
		}
		if _, ok := e.nodes[ev.ChildID]; !ok {
			return fmt.Errorf("attached block %s is unknown", ev.ChildID)
		}
		e.stamp(ev.NodeID, ev.Input, ev.ChildID)
		return e.refresh(slot.group, ev.NodeID)
	case blocks.EventDetach:
		slot, err := e.slot(ev.NodeID, ev.Input)
		if err != nil {
			return err
		}
		slot.seq = 0
		if cs, ok := e.nodes[ev.ChildID]; ok && cs.output != nil {
			cs.output.seq = 0
		}
		return e.refresh(slot.group, ev.NodeID, ev.ChildID)
	case blocks.EventValueChanged:
		if _, ok := e.nodes[ev.NodeID]; !ok {
			return fmt.Errorf("unknown block %s", ev.NodeID)
		}
		return e.refresh(nil, ev.NodeID)
	}
	return fmt.Errorf("unknown event kind %q", ev.Kind)
}

func (e *Engine) slot(nodeID, input string) (*Connection, error) {
	s, ok := e.nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("unknown block %s", nodeID)
	}
	c, ok := s.inputs[input]
	if !ok {
		return nil, fmt.Errorf("block %s has no input %s", nodeID, input)
	}
	return c, nil
}

// Recheck clears every inferred type and checks the whole graph again.
func (e *Engine) Recheck() {
	var queue []*Group
	for _, root := range e.graph.Roots() {
		queue = append(queue, e.resetTree(root)...)
	}
	e.drain(queue)
}

// SetExpected sets the type a root block's context requires. A nil type
// removes the requirement.
func (e *Engine) SetExpected(nodeID string, t typesystem.Type) error {
	s, ok := e.nodes[nodeID]
	if !ok {
		return fmt.Errorf("unknown block %s", nodeID)
	}
	if t == nil {
		delete(e.expected, nodeID)
	} else {
		e.expected[nodeID] = t
	}
	var first *Group
	if s.output != nil {
		first = s.output.group
	}
	return e.refresh(first, nodeID)
}

// refresh resets the trees containing ids and propagates, starting with
// the owning group when one is given.
func (e *Engine) refresh(owner *Group, ids ...string) error {
	seen := make(map[string]bool)
	var queue []*Group
	if owner != nil {
		queue = append(queue, owner)
	}
	for _, id := range ids {
		root, ok := blocks.Root(e.graph, id)
		if !ok {
			return fmt.Errorf("unknown block %s", id)
		}
		if seen[root.ID()] {
			continue
		}
		seen[root.ID()] = true
		queue = append(queue, e.resetTree(root)...)
	}
	e.drain(queue)
	return nil
}

// resetTree returns every connection under root to Unset and lists the
// groups of the tree.
func (e *Engine) resetTree(root blocks.Node) []*Group {
	var groups []*Group
	blocks.Walk(root, func(n blocks.Node) {
		s, ok := e.nodes[n.ID()]
		if !ok {
			return
		}
		for _, c := range s.connections() {
			c.reset()
		}
		groups = append(groups, s.groups...)
	})
	return groups
}

func (e *Engine) groupCount() int {
	return lo.Reduce(lo.Values(e.nodes), func(n int, s *nodeState, _ int) int { return n + len(s.groups) }, 0)
}

// drain resyncs queued groups until no inferred type changes.
func (e *Engine) drain(queue []*Group) {
	queued := make(map[*Group]bool, len(queue))
	pending := queue[:0:0]
	for _, g := range queue {
		if !queued[g] {
			queued[g] = true
			pending = append(pending, g)
		}
	}
	limit := e.maxSteps * max(e.groupCount(), 1)
	for steps := 0; len(pending) > 0; steps++ {
		if steps >= limit {
			e.logger.Warn("type propagation did not settle", "steps", steps, "pending", len(pending))
			return
		}
		g := pending[0]
		pending = pending[1:]
		queued[g] = false
		for _, m := range e.resync(g) {
			next := e.neighbourGroup(m)
			if next != nil && !queued[next] {
				queued[next] = true
				pending = append(pending, next)
			}
		}
	}
}

// Resync recomputes g from its members and propagates the result. The
// error is the first member rejection, if any.
func (e *Engine) Resync(g *Group) error {
	e.drain([]*Group{g})
	return groupError(g)
}

// Push makes t the authoritative type of g and propagates it.
func (e *Engine) Push(g *Group, t typesystem.Type) {
	var pending []*Group
	for _, m := range e.push(g, t, currentTypes(g)) {
		if next := e.neighbourGroup(m); next != nil {
			pending = append(pending, next)
		}
	}
	e.drain(pending)
}

func currentTypes(g *Group) []typesystem.Type {
	return lo.Map(g.Members, func(m *Connection, _ int) typesystem.Type { return m.inferred })
}

func groupError(g *Group) error {
	if m, ok := lo.Find(g.Members, func(m *Connection) bool { return m.rejected }); ok {
		return m.err
	}
	return nil
}

// resync clears the members of g, folds their initial types in attach
// order and pushes the result. It returns the members whose inferred type
// changed.
func (e *Engine) resync(g *Group) []*Connection {
	previous := currentTypes(g)
	for _, m := range g.Members {
		m.reset()
	}

	ordered := make([]*Connection, len(g.Members))
	copy(ordered, g.Members)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	var folded typesystem.Type = typesystem.Unknown{}
	for _, m := range ordered {
		own := e.initial(m)
		next, err := typesystem.Principal(folded, m.fromConstraint(own))
		if err != nil {
			e.reject(m, typesystem.NewMismatchError(m.toConstraint(folded), own))
			continue
		}
		folded = next
	}
	e.logger.Debug("resync", "group", g.ID, "type", folded)
	return e.push(g, folded, previous)
}

// initial is the member's declared type joined with whatever the other end
// of its wire currently holds. A conflict rejects the member, which then
// contributes its declared type alone.
func (e *Engine) initial(m *Connection) typesystem.Type {
	other := e.neighbourType(m)
	if other == nil {
		return m.Declared
	}
	t, err := typesystem.Principal(m.Declared, other)
	if err != nil {
		expected, actual := m.Declared, other
		if m.IsOutput() {
			expected, actual = other, m.Declared
		}
		e.reject(m, typesystem.NewMismatchError(expected, actual))
		return m.Declared
	}
	return t
}

func (e *Engine) reject(m *Connection, err *diagnostics.DiagnosticError) {
	if m.rejected {
		return
	}
	m.rejected = true
	m.err = err.At(m.Node, m.Input)
	e.logger.Debug("rejected connection", "node", m.Node, "input", m.Input, "error", err.Message)
}

func (e *Engine) push(g *Group, t typesystem.Type, previous []typesystem.Type) []*Connection {
	var changed []*Connection
	for i, m := range g.Members {
		m.inferred = m.toConstraint(t)
		if previous[i] == nil || !typesystem.SameType(previous[i], m.inferred) {
			changed = append(changed, m)
		}
	}
	return changed
}

// peer returns the connection at the other end of m's wire.
func (e *Engine) peer(m *Connection) (*Connection, bool) {
	if m.IsOutput() {
		parent, input, ok := e.graph.Parent(m.Node)
		if !ok {
			return nil, false
		}
		ps, ok := e.nodes[parent.ID()]
		if !ok {
			return nil, false
		}
		c, ok := ps.inputs[input]
		return c, ok
	}
	n, ok := e.graph.Node(m.Node)
	if !ok {
		return nil, false
	}
	child := n.Child(m.Input)
	if child == nil {
		return nil, false
	}
	cs, ok := e.nodes[child.ID()]
	if !ok || cs.output == nil {
		return nil, false
	}
	return cs.output, true
}

func (e *Engine) neighbourType(m *Connection) typesystem.Type {
	other, ok := e.peer(m)
	if !ok {
		if m.IsOutput() {
			return e.expected[m.Node]
		}
		return nil
	}
	if other.inferred != nil {
		return other.inferred
	}
	return other.Declared
}

func (e *Engine) neighbourGroup(m *Connection) *Group {
	if other, ok := e.peer(m); ok {
		return other.group
	}
	return nil
}

// Groups returns the constraint groups of a block.
func (e *Engine) Groups(nodeID string) []*Group {
	if s, ok := e.nodes[nodeID]; ok {
		return s.groups
	}
	return nil
}

// Connection returns the connection of a block; an empty input names the output.
func (e *Engine) Connection(nodeID, input string) (*Connection, bool) {
	s, ok := e.nodes[nodeID]
	if !ok {
		return nil, false
	}
	if input == "" {
		return s.output, s.output != nil
	}
	c, ok := s.inputs[input]
	return c, ok
}

// GroupOf returns the group owning the given connection.
func (e *Engine) GroupOf(nodeID, input string) (*Group, bool) {
	c, ok := e.Connection(nodeID, input)
	if !ok {
		return nil, false
	}
	return c.group, true
}
