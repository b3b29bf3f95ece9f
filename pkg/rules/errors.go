package rules

import "fmt"

// RuleEvaluationError indicates that a single rule's condition could not
// be evaluated. It is attached to that rule's result only; evaluation of
// the remaining rules continues.
type RuleEvaluationError struct {
	// RuleID is the rule whose condition failed.
	RuleID string

	// Cause is the underlying compilation or evaluation error.
	Cause error
}

func (e *RuleEvaluationError) Error() string {
	return fmt.Sprintf("rule %s: condition evaluation failed: %v", e.RuleID, e.Cause)
}

func (e *RuleEvaluationError) Unwrap() error {
	return e.Cause
}
