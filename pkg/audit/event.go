// Package audit emits immutable decision events for external
// observability tooling. The engine writes events and never reads them
// back.
package audit

import (
	"time"
)

// EventType classifies an audit event.
type EventType string

const (
	EventStateTransition EventType = "state_transition"
	EventVerdictIssued   EventType = "verdict_issued"
	EventWaiverDecided   EventType = "waiver_decided"
	EventAppealDecided   EventType = "appeal_decided"
	EventSessionFailed   EventType = "session_failed"
)

// Event is one immutable audit record.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Type classifies the event.
	Type EventType `json:"type"`

	// SessionID is the arbitration session the event belongs to.
	SessionID string `json:"session_id"`

	// Subject names what the event is about (a verdict id, rule id,
	// appeal id, or state pair).
	Subject string `json:"subject"`

	// Detail is a human-readable account of what happened.
	Detail string `json:"detail"`

	// Attributes carries structured event data.
	Attributes map[string]string `json:"attributes,omitempty"`

	// OccurredAt is when the event happened.
	OccurredAt time.Time `json:"occurred_at"`
}
