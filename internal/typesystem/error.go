package typesystem

import (
	"github.com/funvibe/funblocks/internal/diagnostics"
)

// NewMismatchError reports that actual cannot flow where expected is required.
func NewMismatchError(expected, actual Type) *diagnostics.DiagnosticError {
	return diagnostics.NewError(diagnostics.TypeMismatch, "expected %s, got %s", display(expected), display(actual))
}

func display(t Type) string {
	if t == nil {
		return "nothing"
	}
	return t.String()
}
