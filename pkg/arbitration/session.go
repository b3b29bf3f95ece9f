// Package arbitration orchestrates the lifecycle of arbitration
// sessions. The orchestrator owns the session table, serializes
// state-changing operations per session, enforces the concurrent-session
// admission limit, and coordinates rule evaluation, verdict generation,
// waivers, appeals, and precedent promotion.
package arbitration

import (
	"time"

	"mercator-hq/themis/pkg/constitution"
	"mercator-hq/themis/pkg/precedent"
	"mercator-hq/themis/pkg/rules"
	"mercator-hq/themis/pkg/verdict"
	"mercator-hq/themis/pkg/waiver"
)

// State is a session's position in the arbitration state machine.
type State string

const (
	// StateRuleEvaluation is the initial state. The only legal
	// state-machine operation is rule evaluation.
	StateRuleEvaluation State = "RULE_EVALUATION"

	// StateVerdictGeneration follows rule evaluation. The only legal
	// state-machine operation is verdict generation.
	StateVerdictGeneration State = "VERDICT_GENERATION"

	// StateCompleted is the successful terminal state.
	StateCompleted State = "COMPLETED"

	// StateFailed is the failure terminal state.
	StateFailed State = "FAILED"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Transition is one recorded edge in a session's state history.
type Transition struct {
	// From is the state left, empty for the initial transition.
	From State

	// To is the state entered.
	To State

	// At is when the transition happened.
	At time.Time

	// Note explains the transition.
	Note string
}

// Metadata is the append-only bookkeeping attached to a session.
// Entries are appended by the orchestrator and never rewritten.
type Metadata struct {
	// StateTransitions is the full transition history, oldest first.
	StateTransitions []Transition

	// Decisions records rule-evaluation summaries and waiver/appeal
	// outcomes in the order they occurred.
	Decisions []string

	// Error is the terminal failure cause, set only by a failed
	// session.
	Error string
}

// Session is one violation-arbitration instance. Sessions are owned
// exclusively by the orchestrator; callers only ever see snapshots.
type Session struct {
	// ID uniquely identifies the session.
	ID string

	// State is the current state-machine position.
	State State

	// Violation is the violation under arbitration.
	Violation *constitution.Violation

	// RulesEvaluated holds the per-rule evaluation results.
	RulesEvaluated []rules.Evaluation

	// Evidence lists the evidence references in scope, seeded from the
	// violation.
	Evidence []string

	// Participants lists the agents involved, starting with the
	// violator.
	Participants []string

	// Precedents holds the matches cited during verdict generation.
	Precedents []precedent.PrecedentMatch

	// StartTime is when the session was admitted.
	StartTime time.Time

	// EndTime is when the session reached a terminal state.
	EndTime time.Time

	// Verdict is the binding decision, once generated. An overturned
	// appeal replaces it; the superseded verdict id is retained in
	// Metadata.Decisions.
	Verdict *verdict.Verdict

	// WaiverDecisions records every waiver outcome reached during the
	// session, in decision order. Appended, never rewritten.
	WaiverDecisions []*waiver.Decision

	// AppealIDs lists the appeals filed against this session's
	// verdict.
	AppealIDs []string

	// Metadata is the append-only transition and decision log.
	Metadata Metadata
}

// clone returns a deep-enough copy for handing outside the
// orchestrator. Slices are copied; the violation, verdict, and waiver
// decisions are copied by value so callers cannot mutate owned state.
func (s *Session) clone() *Session {
	out := *s
	if s.Violation != nil {
		v := *s.Violation
		v.Evidence = append([]string(nil), s.Violation.Evidence...)
		out.Violation = &v
	}
	out.Verdict = cloneVerdict(s.Verdict)
	if s.WaiverDecisions != nil {
		out.WaiverDecisions = make([]*waiver.Decision, len(s.WaiverDecisions))
		for n, wd := range s.WaiverDecisions {
			d := *wd
			d.Conditions = append([]string(nil), wd.Conditions...)
			out.WaiverDecisions[n] = &d
		}
	}
	out.RulesEvaluated = append([]rules.Evaluation(nil), s.RulesEvaluated...)
	out.Evidence = append([]string(nil), s.Evidence...)
	out.Participants = append([]string(nil), s.Participants...)
	out.Precedents = append([]precedent.PrecedentMatch(nil), s.Precedents...)
	out.AppealIDs = append([]string(nil), s.AppealIDs...)
	out.Metadata.StateTransitions = append([]Transition(nil), s.Metadata.StateTransitions...)
	out.Metadata.Decisions = append([]string(nil), s.Metadata.Decisions...)
	return &out
}

func cloneVerdict(v *verdict.Verdict) *verdict.Verdict {
	if v == nil {
		return nil
	}
	out := *v
	out.Reasoning = append([]verdict.ReasoningStep(nil), v.Reasoning...)
	out.RulesApplied = append([]string(nil), v.RulesApplied...)
	out.Evidence = append([]string(nil), v.Evidence...)
	out.Precedents = append([]string(nil), v.Precedents...)
	out.AuditLog = append([]string(nil), v.AuditLog...)
	return &out
}
