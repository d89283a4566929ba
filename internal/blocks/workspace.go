package blocks

import (
	"fmt"

	"github.com/funvibe/funblocks/internal/typesystem"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// EventKind names an edit.
type EventKind string

const (
	EventCreated      EventKind = "created"
	EventRemoved      EventKind = "removed"
	EventAttach       EventKind = "attach"
	EventDetach       EventKind = "detach"
	EventValueChanged EventKind = "value-changed"
)

// Event describes one edit. For attach and detach NodeID is the parent,
// Input the slot and ChildID the plugged block. Seq increases with every
// event of a workspace.
type Event struct {
	Kind    EventKind
	NodeID  string
	Input   string
	ChildID string
	Seq     uint64
}

// Listener is notified synchronously after each edit.
type Listener func(Event)

// Block is a node of a Workspace.
type Block struct {
	id          string
	shape       Shape
	meta        Meta
	output      typesystem.Type
	inputs      []Input
	children    map[string]*Block
	parent      *Block
	parentInput string
}

func (b *Block) ID() string                  { return b.id }
func (b *Block) Shape() Shape                { return b.shape }
func (b *Block) OutputType() typesystem.Type { return b.output }
func (b *Block) Meta() Meta                  { return b.meta }

func (b *Block) Inputs() []Input {
	out := make([]Input, len(b.inputs))
	copy(out, b.inputs)
	return out
}

func (b *Block) Child(input string) Node {
	if c, ok := b.children[input]; ok {
		return c
	}
	return nil
}

func (b *Block) hasInput(name string) bool {
	_, ok := lo.Find(b.inputs, func(in Input) bool { return in.Name == name })
	return ok
}

// Workspace is an in-memory block graph. It is not safe for concurrent use;
// edits are serialized by the caller.
type Workspace struct {
	blocks    map[string]*Block
	order     []string
	listeners []Listener
	seq       uint64
}

func NewWorkspace() *Workspace {
	return &Workspace{blocks: make(map[string]*Block)}
}

// Subscribe registers l for every later edit.
func (w *Workspace) Subscribe(l Listener) {
	w.listeners = append(w.listeners, l)
}

func (w *Workspace) emit(ev Event) {
	w.seq++
	ev.Seq = w.seq
	for _, l := range w.listeners {
		l(ev)
	}
}

// NewBlock creates a block with a fresh ID.
func (w *Workspace) NewBlock(shape Shape, meta Meta) (*Block, error) {
	return w.AddBlock(uuid.NewString(), shape, meta)
}

// AddBlock creates a block with the given ID; an empty ID gets a fresh one.
func (w *Workspace) AddBlock(id string, shape Shape, meta Meta) (*Block, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := w.blocks[id]; exists {
		return nil, fmt.Errorf("block %s already exists", id)
	}
	if err := ValidateMeta(shape, meta); err != nil {
		return nil, fmt.Errorf("block %s: %w", id, err)
	}
	b := &Block{
		id:       id,
		shape:    shape,
		meta:     meta,
		output:   OutputTypeFor(shape, meta),
		inputs:   InputsFor(shape, meta),
		children: make(map[string]*Block),
	}
	w.blocks[id] = b
	w.order = append(w.order, id)
	w.emit(Event{Kind: EventCreated, NodeID: id})
	return b, nil
}

// Block returns the concrete block with the given ID.
func (w *Workspace) Block(id string) (*Block, bool) {
	b, ok := w.blocks[id]
	return b, ok
}

func (w *Workspace) lookup(id string) (*Block, error) {
	b, ok := w.blocks[id]
	if !ok {
		return nil, fmt.Errorf("no block %s", id)
	}
	return b, nil
}

// Connect plugs child into the input of parent. The slot must be empty and
// child must be an unattached expression block that is not an ancestor of parent.
func (w *Workspace) Connect(parentID, input, childID string) error {
	parent, err := w.lookup(parentID)
	if err != nil {
		return err
	}
	child, err := w.lookup(childID)
	if err != nil {
		return err
	}
	if !parent.hasInput(input) {
		return fmt.Errorf("block %s has no input %s", parentID, input)
	}
	if _, taken := parent.children[input]; taken {
		return fmt.Errorf("input %s of block %s is already connected", input, parentID)
	}
	if child.output == nil {
		return fmt.Errorf("block %s has no output connection", childID)
	}
	if child.parent != nil {
		return fmt.Errorf("block %s is already connected to %s", childID, child.parent.id)
	}
	for p := parent; p != nil; p = p.parent {
		if p == child {
			return fmt.Errorf("connecting %s under %s would create a cycle", childID, parentID)
		}
	}
	parent.children[input] = child
	child.parent = parent
	child.parentInput = input
	w.emit(Event{Kind: EventAttach, NodeID: parentID, Input: input, ChildID: childID})
	return nil
}

// Disconnect unplugs whatever is connected to the input of parent.
func (w *Workspace) Disconnect(parentID, input string) error {
	parent, err := w.lookup(parentID)
	if err != nil {
		return err
	}
	child, ok := parent.children[input]
	if !ok {
		return fmt.Errorf("input %s of block %s is not connected", input, parentID)
	}
	delete(parent.children, input)
	child.parent = nil
	child.parentInput = ""
	w.emit(Event{Kind: EventDetach, NodeID: parentID, Input: input, ChildID: child.id})
	return nil
}

// SetLiteral changes the value of a literal block.
func (w *Workspace) SetLiteral(id, literal string) error {
	b, err := w.lookup(id)
	if err != nil {
		return err
	}
	if !b.shape.IsLiteral() {
		return fmt.Errorf("block %s is a %s block and has no literal", id, b.shape)
	}
	if b.shape != ShapeString && literal != "" {
		if _, err := ParseLiteral(b.shape, literal); err != nil {
			return err
		}
	}
	b.meta.Literal = literal
	w.emit(Event{Kind: EventValueChanged, NodeID: id})
	return nil
}

// Remove detaches a block from its parent and children, then deletes it.
func (w *Workspace) Remove(id string) error {
	b, err := w.lookup(id)
	if err != nil {
		return err
	}
	if b.parent != nil {
		if err := w.Disconnect(b.parent.id, b.parentInput); err != nil {
			return err
		}
	}
	for _, in := range b.inputs {
		if _, ok := b.children[in.Name]; ok {
			if err := w.Disconnect(id, in.Name); err != nil {
				return err
			}
		}
	}
	delete(w.blocks, id)
	w.order = lo.Without(w.order, id)
	w.emit(Event{Kind: EventRemoved, NodeID: id})
	return nil
}

func (w *Workspace) Node(id string) (Node, bool) {
	b, ok := w.blocks[id]
	if !ok {
		return nil, false
	}
	return b, true
}

func (w *Workspace) Parent(id string) (Node, string, bool) {
	b, ok := w.blocks[id]
	if !ok || b.parent == nil {
		return nil, "", false
	}
	return b.parent, b.parentInput, true
}

// Roots returns the unattached blocks in creation order.
func (w *Workspace) Roots() []Node {
	roots := lo.Filter(w.order, func(id string, _ int) bool { return w.blocks[id].parent == nil })
	return lo.Map(roots, func(id string, _ int) Node { return w.blocks[id] })
}

// Blocks returns every block in creation order.
func (w *Workspace) Blocks() []*Block {
	return lo.Map(w.order, func(id string, _ int) *Block { return w.blocks[id] })
}

// Walk visits n and its connected descendants depth first, in input order.
func Walk(n Node, visit func(Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, in := range n.Inputs() {
		Walk(n.Child(in.Name), visit)
	}
}

// Root follows parent links up from id.
func Root(g Graph, id string) (Node, bool) {
	n, ok := g.Node(id)
	if !ok {
		return nil, false
	}
	for {
		p, _, ok := g.Parent(n.ID())
		if !ok {
			return n, true
		}
		n = p
	}
}
