// Package waiver grants, tracks, and expires temporary rule exemptions.
// At most one active waiver exists per rule at any time; expiry is
// time-based and checked lazily on access, with an explicit sweep for
// housekeeping.
package waiver

import (
	"time"
)

// Status is the lifecycle state of a waiver decision.
type Status string

const (
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusRevoked  Status = "REVOKED"
	// StatusExpired marks an approved waiver that ran out its granted
	// duration, as opposed to one an arbiter revoked.
	StatusExpired Status = "EXPIRED"
)

// Request is a petition for a temporary exemption from a rule.
type Request struct {
	// RuleID is the rule to be exempted.
	RuleID string

	// RequestedBy identifies the requesting agent.
	RequestedBy string

	// Justification is the free-text rationale for the exemption.
	Justification string

	// Evidence lists references supporting the justification.
	Evidence []string

	// RequestedDuration is how long the exemption should last.
	RequestedDuration time.Duration

	// RequestedAt is when the request was made.
	RequestedAt time.Time
}

// Evaluation is the interpreter's judgment on a request, before it is
// persisted as a decision.
type Evaluation struct {
	// ShouldApprove is the recommendation.
	ShouldApprove bool

	// Reasoning explains the recommendation.
	Reasoning string

	// Confidence is the interpreter's confidence, in [0,1].
	Confidence float64

	// Conditions are obligations attached to an approval.
	Conditions []string

	// RecommendedDuration overrides the requested duration when the
	// request exceeds the configured maximum. Zero means the requested
	// duration stands.
	RecommendedDuration time.Duration
}

// Decision is a persisted waiver outcome.
type Decision struct {
	// RuleID is the rule the waiver applies to.
	RuleID string

	// RequestedBy identifies the requesting agent.
	RequestedBy string

	// DecidedBy identifies the arbiter that decided.
	DecidedBy string

	// Status is the current lifecycle state.
	Status Status

	// Reasoning explains the decision.
	Reasoning string

	// Confidence is the deciding confidence, in [0,1].
	Confidence float64

	// Conditions are obligations attached to the approval.
	Conditions []string

	// DecidedAt is when the decision was made.
	DecidedAt time.Time

	// ApprovedDuration is the granted exemption length.
	ApprovedDuration time.Duration

	// ExpiresAt is DecidedAt + ApprovedDuration.
	ExpiresAt time.Time

	// AutoRevokeAt, when set, marks the moment the waiver revokes
	// itself. Equal to ExpiresAt when auto-revocation is configured.
	AutoRevokeAt time.Time
}

// Expired reports whether the decision has lapsed at the given instant.
func (d *Decision) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt)
}

// Statistics summarizes the interpreter's decision history.
type Statistics struct {
	// Total is the number of decisions made.
	Total int

	// ByStatus counts decisions per lifecycle state.
	ByStatus map[Status]int

	// ActiveWaivers is the current size of the active index.
	ActiveWaivers int

	// MeanApprovedDuration is the mean of approved durations.
	MeanApprovedDuration time.Duration
}
