package diagnostics

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of a failure.
type ErrorCode string

const (
	TypeMismatch      ErrorCode = "TypeMismatch"
	ArityMismatch     ErrorCode = "ArityMismatch"
	UnboundName       ErrorCode = "UnboundName"
	NotApplicable     ErrorCode = "NotApplicable"
	NoMatchingClause  ErrorCode = "NoMatchingClause"
	IncompleteProgram ErrorCode = "IncompleteProgram"
	MalformedList     ErrorCode = "MalformedList"
	RuntimeFailure    ErrorCode = "RuntimeFailure"
	Interrupted       ErrorCode = "Interrupted"
)

// Fatal reports whether the code aborts a check. IncompleteProgram is a
// displayable state, everything else is a hard failure.
func (c ErrorCode) Fatal() bool {
	return c != IncompleteProgram
}

// DiagnosticError is the error value produced by every component.
// NodeID and Input locate the failure in the block graph when known.
type DiagnosticError struct {
	Code    ErrorCode
	NodeID  string
	Input   string
	Message string
}

func NewError(code ErrorCode, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *DiagnosticError) Error() string {
	switch {
	case e.NodeID != "" && e.Input != "":
		return fmt.Sprintf("%s at %s.%s: %s", e.Code, e.NodeID, e.Input, e.Message)
	case e.NodeID != "":
		return fmt.Sprintf("%s at %s: %s", e.Code, e.NodeID, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Is matches any DiagnosticError with the same code.
func (e *DiagnosticError) Is(target error) bool {
	var other *DiagnosticError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// At returns a copy located at the given node and input. An existing
// location is kept, the innermost node wins.
func (e *DiagnosticError) At(nodeID, input string) *DiagnosticError {
	if e.NodeID != "" {
		return e
	}
	located := *e
	located.NodeID = nodeID
	located.Input = input
	return &located
}

// Sentinel returns a bare error of the given code for use with errors.Is.
func Sentinel(code ErrorCode) error {
	return &DiagnosticError{Code: code}
}

// CodeOf extracts the code of the first DiagnosticError in the chain.
func CodeOf(err error) (ErrorCode, bool) {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// Locate attaches a location to err when it is a DiagnosticError without
// one. Other errors are returned unchanged.
func Locate(err error, nodeID, input string) error {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.At(nodeID, input)
	}
	return err
}

// Prefix prepends context to the message of a DiagnosticError, keeping its
// code and location. Other errors are wrapped.
func Prefix(err error, prefix string) error {
	var de *DiagnosticError
	if errors.As(err, &de) {
		prefixed := *de
		prefixed.Message = prefix + ": " + de.Message
		return &prefixed
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
