package evaluator

import (
	"context"

	"github.com/funvibe/funblocks/internal/diagnostics"
)

// Site tells an Interrupter where the checkpoint was reached.
type Site int

const (
	// SiteApply is reached before every procedure application.
	SiteApply Site = iota
	// SiteLoop is reached before each clause of cond and operand of and/or.
	SiteLoop
)

// Interrupter is polled at recursion and loop boundaries. A non-nil error
// aborts evaluation and is returned to the caller.
type Interrupter interface {
	Checkpoint(site Site) error
}

type resetter interface {
	Reset()
}

// ContextInterrupter stops evaluation once its context is done.
type ContextInterrupter struct {
	Context context.Context
}

func (c *ContextInterrupter) Checkpoint(Site) error {
	select {
	case <-c.Context.Done():
		return diagnostics.NewError(diagnostics.Interrupted, "execution cancelled: %v", c.Context.Err())
	default:
		return nil
	}
}

// CallBudget stops evaluation after Limit applications. It is reset at
// the start of every top-level Eval.
type CallBudget struct {
	Limit int
	calls int
}

func NewCallBudget(limit int) *CallBudget {
	return &CallBudget{Limit: limit}
}

func (b *CallBudget) Checkpoint(site Site) error {
	if site != SiteApply || b.Limit <= 0 {
		return nil
	}
	b.calls++
	if b.calls > b.Limit {
		return diagnostics.NewError(diagnostics.Interrupted, "call budget of %d exhausted, possible infinite loop", b.Limit)
	}
	return nil
}

func (b *CallBudget) Reset() {
	b.calls = 0
}

// Calls reports how many applications were counted since the last reset.
func (b *CallBudget) Calls() int {
	return b.calls
}

// Interrupters polls each member in order. Nil members are skipped.
type Interrupters []Interrupter

func (is Interrupters) Checkpoint(site Site) error {
	for _, i := range is {
		if i == nil {
			continue
		}
		if err := i.Checkpoint(site); err != nil {
			return err
		}
	}
	return nil
}

func (is Interrupters) Reset() {
	for _, i := range is {
		if r, ok := i.(resetter); ok {
			r.Reset()
		}
	}
}

func (e *Evaluator) checkpoint(site Site) error {
	if e.Interrupter == nil {
		return nil
	}
	return e.Interrupter.Checkpoint(site)
}
