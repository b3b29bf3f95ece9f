// Package appeal accepts and adjudicates challenges to verdicts.
// Appeals move through submit, review, optional escalation, and
// finalization; an overturned review synthesizes a replacement verdict.
package appeal

import (
	"time"

	"mercator-hq/themis/pkg/verdict"
)

// Status is the lifecycle state of an appeal.
type Status string

const (
	// StatusSubmitted means the appeal awaits review at its current level.
	StatusSubmitted Status = "SUBMITTED"

	// StatusUpheld means review confirmed the original verdict.
	StatusUpheld Status = "UPHELD"

	// StatusOverturned means review replaced the original verdict.
	StatusOverturned Status = "OVERTURNED"

	// StatusFinalized is the terminal state.
	StatusFinalized Status = "FINALIZED"
)

// Metadata carries the mutable bookkeeping of an appeal.
type Metadata struct {
	// EscalationReason records why the appeal was last escalated.
	EscalationReason string

	// FinalizedAt is when the appeal reached its terminal state.
	FinalizedAt time.Time
}

// Appeal is a formal challenge to a verdict. It is mutable only through
// the defined transitions: submit, review, escalate, finalize.
type Appeal struct {
	// ID uniquely identifies the appeal.
	ID string

	// SessionID is the arbitration session whose verdict is challenged.
	SessionID string

	// AppellantID identifies who filed the appeal.
	AppellantID string

	// Level is the review tier, starting at 1.
	Level int

	// Status is the current lifecycle state.
	Status Status

	// Grounds is the free-text basis for the challenge.
	Grounds string

	// NewEvidence lists evidence not considered by the original verdict.
	NewEvidence []string

	// Reviewers lists who reviewed the appeal, recorded at review time.
	Reviewers []string

	// ReviewedAt is when the last review concluded.
	ReviewedAt time.Time

	// SubmittedAt is when the appeal was filed.
	SubmittedAt time.Time

	// Metadata holds escalation and finalization bookkeeping.
	Metadata Metadata
}

// Decision is the outcome of reviewing an appeal.
type Decision struct {
	// AppealID is the reviewed appeal.
	AppealID string

	// Decision is the review outcome, UPHELD or OVERTURNED.
	Decision Status

	// Reasoning explains the outcome.
	Reasoning string

	// Reviewers lists who participated in the review.
	Reviewers []string

	// NewVerdict replaces the original verdict; present only when the
	// appeal is overturned.
	NewVerdict *verdict.Verdict
}

// Statistics summarizes the arbitrator's appeal history.
type Statistics struct {
	// Total is the number of appeals submitted.
	Total int

	// ByStatus counts appeals per lifecycle state.
	ByStatus map[Status]int

	// ByLevel counts appeals per review tier.
	ByLevel map[int]int

	// OverturnRate is overturned / (upheld + overturned). Zero when
	// nothing has been reviewed.
	OverturnRate float64

	// AverageLevel is the mean review tier across all appeals.
	AverageLevel float64
}
