// Package verdict turns rule-evaluation results and precedent matches
// into binding decisions with an explicit reasoning chain.
package verdict

import (
	"fmt"
	"time"
)

// Outcome is the decision a verdict carries.
type Outcome string

const (
	// OutcomeApproved clears the conduct under review.
	OutcomeApproved Outcome = "APPROVED"

	// OutcomeRejected confirms the violation and rejects the conduct.
	OutcomeRejected Outcome = "REJECTED"

	// OutcomeNeedsReview defers to a human when the evidence or rule
	// signal is too weak to decide automatically.
	OutcomeNeedsReview Outcome = "NEEDS_REVIEW"
)

// Valid reports whether o is a recognized outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeApproved, OutcomeRejected, OutcomeNeedsReview:
		return true
	}
	return false
}

// ReasoningStep is one link in a verdict's reasoning chain.
type ReasoningStep struct {
	// Step is the 1-based position in the chain.
	Step int `json:"step"`

	// Description explains what this step established.
	Description string `json:"description"`

	// EvidenceRefs lists the evidence this step relied on.
	EvidenceRefs []string `json:"evidence_refs,omitempty"`

	// RuleRefs lists the rule ids this step applied.
	RuleRefs []string `json:"rule_refs,omitempty"`

	// Confidence is this step's confidence, in [0,1].
	Confidence float64 `json:"confidence"`
}

// Verdict is a binding decision on a violation. A verdict is created
// once per session; an overturned appeal supersedes it with a new
// verdict and the original is retained for audit.
type Verdict struct {
	// ID uniquely identifies the verdict.
	ID string `json:"id"`

	// SessionID is the arbitration session this verdict decides.
	SessionID string `json:"session_id"`

	// Outcome is the decision.
	Outcome Outcome `json:"outcome"`

	// Reasoning is the ordered chain of steps behind the outcome.
	Reasoning []ReasoningStep `json:"reasoning"`

	// RulesApplied lists the rule ids that informed the outcome.
	RulesApplied []string `json:"rules_applied"`

	// Evidence lists the evidence references considered.
	Evidence []string `json:"evidence"`

	// Precedents lists the precedent ids cited in the reasoning.
	Precedents []string `json:"precedents"`

	// Confidence is the overall confidence in the outcome, in [0,1].
	Confidence float64 `json:"confidence"`

	// IssuedBy identifies the arbiter that issued the verdict.
	IssuedBy string `json:"issued_by"`

	// IssuedAt is when the verdict was issued.
	IssuedAt time.Time `json:"issued_at"`

	// AuditLog is an append-only trail of events on this verdict.
	AuditLog []string `json:"audit_log"`
}

// Append records an audit entry on the verdict. Entries are never
// removed or rewritten.
func (v *Verdict) Append(event string) {
	v.AuditLog = append(v.AuditLog, fmt.Sprintf("%s: %s", time.Now().UTC().Format(time.RFC3339), event))
}
