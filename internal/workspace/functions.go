package workspace

import (
	"fmt"

	"github.com/funvibe/funblocks/internal/blocks"
	"github.com/funvibe/funblocks/internal/evaluator"
	"github.com/funvibe/funblocks/internal/generator"
)

// DefineFunctions compiles every function body of doc and binds it at top
// level in e. Bodies call each other, and themselves, by name at call time,
// so the order does not matter. Functions that cannot be compiled yet, such
// as bodies with holes, are left unbound and reported by name.
func DefineFunctions(e *evaluator.Evaluator, ws *blocks.Workspace, doc *Document) map[string]error {
	skipped := make(map[string]error)
	for _, f := range doc.Functions {
		spec, ret, err := f.Spec()
		if err != nil {
			skipped[f.Name] = err
			continue
		}
		body, ok := ws.Block(f.Body)
		if !ok {
			skipped[f.Name] = fmt.Errorf("function %s: body %s is not in the workspace", f.Name, f.Body)
			continue
		}
		if generator.HasHoles(body) {
			skipped[f.Name] = fmt.Errorf("function %s: body %s is unfinished", f.Name, f.Body)
			continue
		}
		fn, err := generator.GenerateFunction(f.Name, spec, ret, body)
		if err != nil {
			skipped[f.Name] = err
			continue
		}
		if _, err := e.Define(f.Name, fn); err != nil {
			skipped[f.Name] = err
		}
	}
	return skipped
}
