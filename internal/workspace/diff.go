package workspace

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/funvibe/funblocks/internal/blocks"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// EditKind names a change to a workspace.
type EditKind string

const (
	EditAdd        EditKind = "add"
	EditRemove     EditKind = "remove"
	EditConnect    EditKind = "connect"
	EditDisconnect EditKind = "disconnect"
	EditSetLiteral EditKind = "set-literal"
)

// Edit is one step turning one document into another. Block is set for
// adds; Input and Child for connections; Literal for literal changes.
type Edit struct {
	Kind    EditKind
	ID      string
	Block   BlockSpec
	Input   string
	Child   string
	Literal string
}

func (e Edit) String() string {
	switch e.Kind {
	case EditConnect, EditDisconnect:
		return fmt.Sprintf("%s %s.%s %s", e.Kind, e.ID, e.Input, e.Child)
	case EditSetLiteral:
		return fmt.Sprintf("%s %s %q", e.Kind, e.ID, e.Literal)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.ID)
}

// Diff lists the edits that turn prev into next. A nil document is the empty
// workspace. Blocks whose shape or metadata changed are removed and added
// again.
func Diff(prev, next *Document) []Edit {
	if prev == nil {
		prev = &Document{}
	}
	if next == nil {
		next = &Document{}
	}
	var edits []Edit

	replaced := make(map[string]bool)
	for _, ob := range prev.Blocks {
		nb, ok := next.block(ob.ID)
		if !ok || !sameBlock(ob, nb) {
			replaced[ob.ID] = true
			edits = append(edits, Edit{Kind: EditRemove, ID: ob.ID})
		}
	}

	for _, ob := range prev.Blocks {
		if replaced[ob.ID] {
			continue
		}
		nb, _ := next.block(ob.ID)
		for _, input := range inputNames(ob.Inputs) {
			child := ob.Inputs[input]
			if replaced[child] || nb.Inputs[input] == child {
				continue
			}
			edits = append(edits, Edit{Kind: EditDisconnect, ID: ob.ID, Input: input, Child: child})
		}
	}

	for _, nb := range next.Blocks {
		ob, existed := prev.block(nb.ID)
		switch {
		case !existed || replaced[nb.ID]:
			edits = append(edits, Edit{Kind: EditAdd, ID: nb.ID, Block: nb})
		case ob.Literal != nb.Literal:
			edits = append(edits, Edit{Kind: EditSetLiteral, ID: nb.ID, Literal: nb.Literal})
		}
	}

	for _, nb := range next.Blocks {
		ob, _ := prev.block(nb.ID)
		for _, input := range inputNames(nb.Inputs) {
			child := nb.Inputs[input]
			kept := !replaced[nb.ID] && !replaced[child] && ob.Inputs[input] == child
			if kept {
				continue
			}
			edits = append(edits, Edit{Kind: EditConnect, ID: nb.ID, Input: input, Child: child})
		}
	}
	return edits
}

// Apply performs edits on ws in order.
func Apply(ws *blocks.Workspace, p *Palette, edits []Edit) error {
	for _, e := range edits {
		var err error
		switch e.Kind {
		case EditAdd:
			var meta blocks.Meta
			if meta, err = p.Meta(e.Block); err == nil {
				_, err = ws.AddBlock(e.ID, blocks.Shape(e.Block.Shape), meta)
			}
		case EditRemove:
			err = ws.Remove(e.ID)
		case EditConnect:
			err = ws.Connect(e.ID, e.Input, e.Child)
		case EditDisconnect:
			err = ws.Disconnect(e.ID, e.Input)
		case EditSetLiteral:
			err = ws.SetLiteral(e.ID, e.Literal)
		default:
			err = fmt.Errorf("unknown edit kind %q", e.Kind)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", e, err)
		}
	}
	return nil
}

// Build creates a workspace holding the blocks of doc.
func Build(doc *Document, p *Palette) (*blocks.Workspace, error) {
	ws := blocks.NewWorkspace()
	if err := Apply(ws, p, Diff(nil, doc)); err != nil {
		return nil, err
	}
	return ws, nil
}

// inputNames orders input names by prefix, then by numeric suffix, so
// REST_ARG2 comes before REST_ARG10.
func inputNames(inputs map[string]string) []string {
	names := maps.Keys(inputs)
	slices.SortFunc(names, func(a, b string) bool {
		pa, na := splitSuffix(a)
		pb, nb := splitSuffix(b)
		if pa != pb {
			return pa < pb
		}
		if na != nb {
			return na < nb
		}
		return a < b
	})
	return names
}

func splitSuffix(name string) (string, int) {
	prefix := strings.TrimRightFunc(name, unicode.IsDigit)
	n, err := strconv.Atoi(name[len(prefix):])
	if err != nil {
		return name, -1
	}
	return prefix, n
}

func sortStrings(s []string) {
	slices.Sort(s)
}
