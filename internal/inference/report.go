package inference

import (
	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/diagnostics"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// Status is the typecheck signal shown for a block or slot.
type Status int

const (
	StatusOK Status = iota
	StatusIncomplete
	StatusMismatch
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusIncomplete:
		return "incomplete"
	case StatusMismatch:
		return "mismatch"
	}
	return "unknown"
}

// SlotResult describes one input slot.
type SlotResult struct {
	Input    string
	Declared typesystem.Type
	Inferred typesystem.Type
	Status   Status
	Err      error
}

// Result describes one block. Declared and Inferred refer to the output
// connection and are nil for statement blocks.
type Result struct {
	NodeID   string
	Shape    blocks.Shape
	Declared typesystem.Type
	Inferred typesystem.Type
	Status   Status
	Errors   []error
	Slots    []SlotResult
}

// Report returns the current state of a block.
func (e *Engine) Report(nodeID string) (Result, bool) {
	s, ok := e.nodes[nodeID]
	if !ok {
		return Result{}, false
	}
	return e.report(s, make(map[string]Status)), true
}

func (e *Engine) report(s *nodeState, memo map[string]Status) Result {
	r := Result{NodeID: s.id, Shape: s.shape, Status: StatusOK}
	node, _ := e.graph.Node(s.id)

	worsen := func(st Status) {
		if st > r.Status {
			r.Status = st
		}
	}

	if s.output != nil {
		r.Declared = s.output.Declared
		r.Inferred = s.output.inferred
		if s.output.rejected {
			worsen(StatusMismatch)
			r.Errors = append(r.Errors, s.output.err)
		}
	}
	if s.literal && s.shape != blocks.ShapeString && node != nil && node.Meta().Literal == "" {
		worsen(StatusIncomplete)
		r.Errors = append(r.Errors, diagnostics.NewError(diagnostics.IncompleteProgram, "%s block has no value", s.shape).At(s.id, ""))
	}

	for _, name := range s.order {
		c := s.inputs[name]
		slot := SlotResult{Input: name, Declared: c.Declared, Inferred: c.inferred, Status: StatusOK}
		var child blocks.Node
		if node != nil {
			child = node.Child(name)
		}
		switch {
		case c.rejected:
			slot.Status = StatusMismatch
			slot.Err = c.err
		case child == nil:
			slot.Status = StatusIncomplete
			slot.Err = diagnostics.NewError(diagnostics.IncompleteProgram, "input %s is empty", name).At(s.id, name)
		}
		if slot.Err != nil {
			r.Errors = append(r.Errors, slot.Err)
		}
		worsen(slot.Status)
		if child != nil && e.statusOf(child.ID(), memo) != StatusOK {
			worsen(StatusIncomplete)
		}
		r.Slots = append(r.Slots, slot)
	}
	return r
}

func (e *Engine) statusOf(id string, memo map[string]Status) Status {
	if st, ok := memo[id]; ok {
		return st
	}
	s, ok := e.nodes[id]
	if !ok {
		return StatusIncomplete
	}
	st := e.report(s, memo).Status
	memo[id] = st
	return st
}

// Reports returns the state of every block under root, depth first.
func (e *Engine) Reports(root blocks.Node) []Result {
	var out []Result
	memo := make(map[string]Status)
	blocks.Walk(root, func(n blocks.Node) {
		if s, ok := e.nodes[n.ID()]; ok {
			r := e.report(s, memo)
			memo[n.ID()] = r.Status
			out = append(out, r)
		}
	})
	return out
}
