package evaluator

import (
	"github.com/funvibe/funblocks/internal/ast"
	"github.com/funvibe/funblocks/internal/diagnostics"
)

// evalCond tries clauses in order; any value other than #f selects a clause.
func (e *Evaluator) evalCond(node *ast.Cond, scope Env) (Value, error) {
	for _, clause := range node.Clauses {
		if err := e.checkpoint(SiteLoop); err != nil {
			return nil, err
		}
		test, err := e.eval(clause.Test, scope)
		if err != nil {
			return nil, err
		}
		if isTruthy(test) {
			return e.eval(clause.Body, scope)
		}
	}
	if node.Else != nil {
		return e.eval(node.Else, scope)
	}
	return nil, diagnostics.NewError(diagnostics.NoMatchingClause, "all question results were false")
}

// evalIf evaluates exactly one branch.
func (e *Evaluator) evalIf(node *ast.If, scope Env) (Value, error) {
	test, err := e.eval(node.Test, scope)
	if err != nil {
		return nil, err
	}
	if isTruthy(test) {
		return e.eval(node.Then, scope)
	}
	return e.eval(node.Else, scope)
}

// evalAnd returns #f at the first false operand, else the last value.
func (e *Evaluator) evalAnd(node *ast.And, scope Env) (Value, error) {
	var result Value = TRUE
	for _, arg := range node.Args {
		if err := e.checkpoint(SiteLoop); err != nil {
			return nil, err
		}
		val, err := e.eval(arg, scope)
		if err != nil {
			return nil, err
		}
		if !isTruthy(val) {
			return FALSE, nil
		}
		result = val
	}
	return result, nil
}

// evalOr returns the first operand value that is not #f.
func (e *Evaluator) evalOr(node *ast.Or, scope Env) (Value, error) {
	for _, arg := range node.Args {
		if err := e.checkpoint(SiteLoop); err != nil {
			return nil, err
		}
		val, err := e.eval(arg, scope)
		if err != nil {
			return nil, err
		}
		if isTruthy(val) {
			return val, nil
		}
	}
	return FALSE, nil
}
