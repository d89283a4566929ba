package inference

import (
	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// Mapping translates between a group's type and the type facing one member.
type Mapping func(typesystem.Type) typesystem.Type

// Connection is one input or output slot of a block. Input is empty for
// the output connection. A nil inferred type is the Unset state.
type Connection struct {
	Node     string
	Input    string
	Declared typesystem.Type

	inferred       typesystem.Type
	group          *Group
	toConstraint   Mapping
	fromConstraint Mapping

	// seq stamps the wire plugged into this connection; 0 when nothing is.
	seq      uint64
	rejected bool
	err      error
}

// Inferred returns the inferred type, or nil while Unset.
func (c *Connection) Inferred() typesystem.Type { return c.inferred }

// IsOutput reports whether c is the output connection of its block.
func (c *Connection) IsOutput() bool { return c.Input == "" }

func (c *Connection) reset() {
	c.inferred = nil
	c.rejected = false
	c.err = nil
}

// Group is a set of connections that share one jointly determined type.
// Members are listed output first.
type Group struct {
	ID      string
	Node    string
	Members []*Connection
}

func (g *Group) add(c *Connection, to, from Mapping) {
	c.group = g
	c.toConstraint = to
	c.fromConstraint = from
	g.Members = append(g.Members, c)
}

func identity(t typesystem.Type) typesystem.Type { return t }

func unwrapList(t typesystem.Type) typesystem.Type {
	if elem, ok := typesystem.ElementOf(t); ok {
		return elem
	}
	return typesystem.Unknown{}
}

func wrapList(t typesystem.Type) typesystem.Type {
	return typesystem.List{Element: t}
}

// nodeState holds the connections and groups of one block.
type nodeState struct {
	id      string
	shape   blocks.Shape
	output  *Connection
	inputs  map[string]*Connection
	order   []string
	groups  []*Group
	literal bool
}

func (s *nodeState) connections() []*Connection {
	out := make([]*Connection, 0, len(s.order)+1)
	if s.output != nil {
		out = append(out, s.output)
	}
	for _, name := range s.order {
		out = append(out, s.inputs[name])
	}
	return out
}

// newNodeState lays out the connections of n and partitions them into
// groups according to its shape.
func newNodeState(n blocks.Node) *nodeState {
	s := &nodeState{
		id:      n.ID(),
		shape:   n.Shape(),
		inputs:  make(map[string]*Connection),
		literal: n.Shape().IsLiteral(),
	}
	if out := n.OutputType(); out != nil {
		s.output = &Connection{Node: s.id, Declared: out.Clone()}
	}
	for _, in := range n.Inputs() {
		s.inputs[in.Name] = &Connection{Node: s.id, Input: in.Name, Declared: in.Type.Clone()}
		s.order = append(s.order, in.Name)
	}

	newGroup := func(name string) *Group {
		g := &Group{ID: s.id + "/" + name, Node: s.id}
		s.groups = append(s.groups, g)
		return g
	}
	// alone puts each named input in a group of its own.
	alone := func(names ...string) {
		for _, name := range names {
			newGroup(name).add(s.inputs[name], identity, identity)
		}
	}

	switch s.shape {
	case blocks.ShapeList:
		g := newGroup("list")
		g.add(s.output, identity, identity)
		for _, name := range s.order {
			g.add(s.inputs[name], unwrapList, wrapList)
		}
	case blocks.ShapeCons:
		g := newGroup("cons")
		g.add(s.output, identity, identity)
		g.add(s.inputs[config.CarInput], unwrapList, wrapList)
		g.add(s.inputs[config.CdrInput], identity, identity)
	case blocks.ShapeFirst:
		g := newGroup("first")
		g.add(s.output, unwrapList, wrapList)
		g.add(s.inputs[config.ListArgInput], identity, identity)
	case blocks.ShapeRest:
		g := newGroup("rest")
		g.add(s.output, identity, identity)
		g.add(s.inputs[config.ListArgInput], identity, identity)
	case blocks.ShapeApp:
		newGroup("output").add(s.output, identity, identity)
		if len(s.order) > 0 {
			s.argumentGroup(newGroup("args"), n.Meta())
		}
	case blocks.ShapeIf:
		alone(config.PredInput)
		g := newGroup("answer")
		g.add(s.output, identity, identity)
		g.add(s.inputs[config.ThenInput], identity, identity)
		g.add(s.inputs[config.ElseExprInput], identity, identity)
	case blocks.ShapeCond:
		meta := n.Meta()
		g := newGroup("answer")
		g.add(s.output, identity, identity)
		for i := 0; i < meta.ClauseCount; i++ {
			alone(blocks.ConditionInput(i))
			g.add(s.inputs[blocks.BodyInput(i)], identity, identity)
		}
		if meta.HasElse {
			g.add(s.inputs[config.ElseInput], identity, identity)
		}
	case blocks.ShapeAnd, blocks.ShapeOr:
		newGroup("output").add(s.output, identity, identity)
		alone(s.order...)
	case blocks.ShapeExample:
		g := newGroup("example")
		g.add(s.inputs[config.ExprInput], identity, identity)
		g.add(s.inputs[config.ResultInput], identity, identity)
	default:
		if s.output != nil {
			newGroup("output").add(s.output, identity, identity)
		}
	}
	return s
}

// argumentGroup joins the argument slots of a call over an Arguments type:
// positional slot i faces position i, rest slots face the rest element.
func (s *nodeState) argumentGroup(g *Group, meta blocks.Meta) {
	callee := meta.Callee
	positional := len(callee.Params)
	hasRest := callee.Rest != nil

	blank := func() typesystem.Arguments {
		types := make([]typesystem.Type, positional)
		for i := range types {
			types[i] = typesystem.Unknown{}
		}
		var rest typesystem.Type
		if hasRest {
			rest = typesystem.Unknown{}
		}
		return typesystem.Args(rest, types...)
	}

	for i, name := range s.order {
		if i < positional {
			pos := i
			g.add(s.inputs[name],
				func(t typesystem.Type) typesystem.Type {
					if args, ok := t.(typesystem.Arguments); ok && pos < len(args.Positional.Types) {
						return args.Positional.Types[pos]
					}
					return typesystem.Unknown{}
				},
				func(t typesystem.Type) typesystem.Type {
					args := blank()
					args.Positional.Types[pos] = t
					return args
				})
			continue
		}
		g.add(s.inputs[name],
			func(t typesystem.Type) typesystem.Type {
				if args, ok := t.(typesystem.Arguments); ok && args.Rest != nil {
					return args.Rest.Element
				}
				return typesystem.Unknown{}
			},
			func(t typesystem.Type) typesystem.Type {
				args := blank()
				if args.Rest != nil {
					args.Rest.Element = t
				}
				return args
			})
	}
}
