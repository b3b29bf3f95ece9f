package arbitration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/themis/pkg/appeal"
	"mercator-hq/themis/pkg/audit"
	"mercator-hq/themis/pkg/constitution"
	"mercator-hq/themis/pkg/precedent"
	"mercator-hq/themis/pkg/rules"
	"mercator-hq/themis/pkg/telemetry/metrics"
	"mercator-hq/themis/pkg/verdict"
	"mercator-hq/themis/pkg/waiver"
)

// OrchestratorConfig contains configuration for the orchestrator.
type OrchestratorConfig struct {
	// MaxConcurrentSessions caps the number of active (non-terminal)
	// sessions. Default: 100
	MaxConcurrentSessions int

	// EnableWaivers enables the waiver sub-lifecycle.
	EnableWaivers bool

	// EnableAppeals enables the appeal sub-lifecycle.
	EnableAppeals bool
}

// ApplyDefaults sets default values for unset fields.
func (c *OrchestratorConfig) ApplyDefaults() {
	if c.MaxConcurrentSessions == 0 {
		c.MaxConcurrentSessions = 100
	}
}

// Dependencies are the collaborators the orchestrator drives. Registry,
// Rules, Verdicts, and Precedents are required. Matcher is optional;
// without one verdicts are generated with no precedent input. Waivers
// and Appeals are required only when the corresponding lifecycle is
// enabled. Recorder and Metrics are optional.
type Dependencies struct {
	Registry   *constitution.Registry
	Rules      *rules.Engine
	Verdicts   *verdict.Generator
	Matcher    *precedent.Matcher
	Precedents precedent.Store
	Waivers    *waiver.Interpreter
	Appeals    *appeal.Arbitrator
	Recorder   *audit.Recorder
	Metrics    *metrics.Collector
	Logger     *slog.Logger
}

func (d *Dependencies) validate(cfg OrchestratorConfig) error {
	if d.Registry == nil {
		return fmt.Errorf("rule registry is required")
	}
	if d.Rules == nil {
		return fmt.Errorf("rule engine is required")
	}
	if d.Verdicts == nil {
		return fmt.Errorf("verdict generator is required")
	}
	if d.Precedents == nil {
		return fmt.Errorf("precedent store is required")
	}
	if cfg.EnableWaivers && d.Waivers == nil {
		return fmt.Errorf("waiver interpreter is required when waivers are enabled")
	}
	if cfg.EnableAppeals && d.Appeals == nil {
		return fmt.Errorf("appeal arbitrator is required when appeals are enabled")
	}
	return nil
}

// sessionEntry pairs a session with its lock. State-changing operations
// on one session serialize on this lock; unrelated sessions proceed in
// parallel.
type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

// Orchestrator owns the session table and drives sessions through the
// arbitration state machine. All methods are safe for concurrent use.
type Orchestrator struct {
	config  OrchestratorConfig
	deps    Dependencies
	limiter *sessionLimiter
	logger  *slog.Logger

	// mu guards the table itself. Per-session state is guarded by each
	// entry's own lock, never by mu.
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(config OrchestratorConfig, deps Dependencies) (*Orchestrator, error) {
	config.ApplyDefaults()
	if err := deps.validate(config); err != nil {
		return nil, fmt.Errorf("invalid orchestrator dependencies: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		config:   config,
		deps:     deps,
		limiter:  newSessionLimiter(config.MaxConcurrentSessions),
		logger:   logger.With("component", "orchestrator"),
		sessions: make(map[string]*sessionEntry),
	}, nil
}

// StartSession admits a violation for arbitration. The session starts
// in RULE_EVALUATION and counts against the concurrency cap until it
// reaches a terminal state.
func (o *Orchestrator) StartSession(ctx context.Context, violation *constitution.Violation) (*Session, error) {
	if violation == nil {
		return nil, fmt.Errorf("violation cannot be nil")
	}
	if err := violation.Validate(); err != nil {
		return nil, fmt.Errorf("invalid violation: %w", err)
	}

	if !o.limiter.acquire() {
		if o.deps.Metrics != nil {
			o.deps.Metrics.RecordSessionRejected()
		}
		return nil, ErrSessionLimit
	}

	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		State:     StateRuleEvaluation,
		Violation: violation,
		Evidence:  append([]string(nil), violation.Evidence...),
		StartTime: now,
	}
	if violation.Violator != "" {
		s.Participants = []string{violation.Violator}
	}
	s.Metadata.StateTransitions = []Transition{{
		To:   StateRuleEvaluation,
		At:   now,
		Note: "session admitted",
	}}

	o.mu.Lock()
	o.sessions[s.ID] = &sessionEntry{session: s}
	o.mu.Unlock()

	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordSessionStarted()
	}
	o.record(&audit.Event{
		Type:      audit.EventStateTransition,
		SessionID: s.ID,
		Subject:   string(StateRuleEvaluation),
		Detail:    "session admitted",
		Attributes: map[string]string{
			"violation_id": violation.ID,
			"rule_id":      violation.RuleID,
		},
	})
	o.logger.Info("session started",
		"session_id", s.ID,
		"violation_id", violation.ID,
		"rule_id", violation.RuleID,
		"active", o.limiter.active(),
	)

	return s.clone(), nil
}

// EvaluateRules runs the violation against every registered rule and
// moves the session to VERDICT_GENERATION. Legal only from
// RULE_EVALUATION. Rule evaluation happens outside the session lock.
func (o *Orchestrator) EvaluateRules(ctx context.Context, sessionID string) ([]rules.Evaluation, error) {
	entry, err := o.entry(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	if entry.session.State != StateRuleEvaluation {
		state := entry.session.State
		entry.mu.Unlock()
		return nil, &StateError{SessionID: sessionID, Op: "evaluate rules", State: state}
	}
	violation := entry.session.Violation
	entry.mu.Unlock()

	candidates := o.deps.Registry.Snapshot()
	evaluations := o.deps.Rules.EvaluateViolation(ctx, violation, candidates)

	var matched, failed int
	for _, ev := range evaluations {
		switch {
		case ev.Err != nil:
			failed++
		case ev.Matched:
			matched++
		}
		if o.deps.Metrics != nil {
			o.deps.Metrics.RecordRuleEvaluation(evaluationResult(ev))
		}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.session.State != StateRuleEvaluation {
		// The session was failed while evaluation ran.
		return nil, &StateError{SessionID: sessionID, Op: "evaluate rules", State: entry.session.State}
	}
	s := entry.session
	s.RulesEvaluated = evaluations
	s.Metadata.Decisions = append(s.Metadata.Decisions,
		fmt.Sprintf("rule evaluation: %d rules, %d matched, %d failed", len(evaluations), matched, failed))
	o.transition(s, StateVerdictGeneration, "rule evaluation complete")

	return append([]rules.Evaluation(nil), evaluations...), nil
}

// GenerateVerdict produces the session's binding decision. Legal only
// from VERDICT_GENERATION, once. Precedent matching and verdict
// synthesis happen outside the session lock; a verdict above the
// high-confidence threshold is promoted to a precedent, and cited
// precedents have their citation counts incremented.
func (o *Orchestrator) GenerateVerdict(ctx context.Context, sessionID, issuedBy string) (*verdict.Verdict, error) {
	entry, err := o.entry(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	if entry.session.State != StateVerdictGeneration {
		state := entry.session.State
		entry.mu.Unlock()
		return nil, &StateError{SessionID: sessionID, Op: "generate verdict", State: state}
	}
	if entry.session.Verdict != nil {
		entry.mu.Unlock()
		return nil, fmt.Errorf("%w for session %s", ErrVerdictExists, sessionID)
	}
	violation := entry.session.Violation
	evaluations := append([]rules.Evaluation(nil), entry.session.RulesEvaluated...)
	entry.mu.Unlock()

	matches, err := o.matchPrecedents(ctx, violation)
	if err != nil {
		return nil, err
	}

	v, err := o.deps.Verdicts.Generate(sessionID, violation, evaluations, matches, issuedBy)
	if err != nil {
		return nil, fmt.Errorf("verdict generation failed: %w", err)
	}

	entry.mu.Lock()
	if entry.session.State != StateVerdictGeneration {
		state := entry.session.State
		entry.mu.Unlock()
		return nil, &StateError{SessionID: sessionID, Op: "generate verdict", State: state}
	}
	if entry.session.Verdict != nil {
		entry.mu.Unlock()
		return nil, fmt.Errorf("%w for session %s", ErrVerdictExists, sessionID)
	}
	s := entry.session
	s.Verdict = v
	s.Precedents = matches
	s.Metadata.Decisions = append(s.Metadata.Decisions,
		fmt.Sprintf("verdict %s: %s (confidence %.2f)", v.ID, v.Outcome, v.Confidence))
	entry.mu.Unlock()

	o.citePrecedents(ctx, v)
	o.promoteVerdict(ctx, v, violation)

	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordVerdict(string(v.Outcome))
	}
	o.record(&audit.Event{
		Type:      audit.EventVerdictIssued,
		SessionID: sessionID,
		Subject:   v.ID,
		Detail:    fmt.Sprintf("verdict %s with confidence %.2f", v.Outcome, v.Confidence),
		Attributes: map[string]string{
			"outcome":   string(v.Outcome),
			"issued_by": issuedBy,
		},
	})
	o.logger.Info("verdict generated",
		"session_id", sessionID,
		"verdict_id", v.ID,
		"outcome", v.Outcome,
		"confidence", v.Confidence,
		"precedents", len(matches),
	)

	return cloneVerdict(v), nil
}

// EvaluateWaiver runs the waiver lifecycle for the session's violation
// rule. The session must already carry a verdict; the primary state is
// unaffected.
func (o *Orchestrator) EvaluateWaiver(ctx context.Context, sessionID string, request *waiver.Request, arbiterID string) (*waiver.Decision, error) {
	if !o.config.EnableWaivers {
		return nil, ErrWaiversDisabled
	}
	if request == nil {
		return nil, fmt.Errorf("waiver request cannot be nil")
	}
	entry, err := o.entry(sessionID)
	if err != nil {
		return nil, err
	}

	rule, ok := o.deps.Registry.Get(request.RuleID)
	if !ok {
		return nil, fmt.Errorf("unknown rule %s", request.RuleID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.session.Verdict == nil {
		return nil, &NoVerdictError{SessionID: sessionID}
	}

	decision, err := o.deps.Waivers.ProcessWaiver(request, &rule, arbiterID)
	if err != nil {
		return nil, fmt.Errorf("waiver processing failed: %w", err)
	}

	s := entry.session
	s.WaiverDecisions = append(s.WaiverDecisions, decision)
	s.Metadata.Decisions = append(s.Metadata.Decisions,
		fmt.Sprintf("waiver for rule %s: %s", request.RuleID, decision.Status))

	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordWaiverDecision(string(decision.Status))
	}
	o.record(&audit.Event{
		Type:      audit.EventWaiverDecided,
		SessionID: sessionID,
		Subject:   request.RuleID,
		Detail:    decision.Reasoning,
		Attributes: map[string]string{
			"status":       string(decision.Status),
			"requested_by": request.RequestedBy,
		},
	})

	out := *decision
	out.Conditions = append([]string(nil), decision.Conditions...)
	return &out, nil
}

// SubmitAppeal files a challenge against the session's verdict. The
// session must already carry a verdict; the primary state is
// unaffected.
func (o *Orchestrator) SubmitAppeal(ctx context.Context, sessionID, appellantID, grounds string, newEvidence []string) (*appeal.Appeal, error) {
	if !o.config.EnableAppeals {
		return nil, ErrAppealsDisabled
	}
	entry, err := o.entry(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.session.Verdict == nil {
		return nil, &NoVerdictError{SessionID: sessionID}
	}

	ap, err := o.deps.Appeals.SubmitAppeal(sessionID, entry.session.Verdict, appellantID, grounds, newEvidence)
	if err != nil {
		return nil, err
	}

	s := entry.session
	s.AppealIDs = append(s.AppealIDs, ap.ID)
	s.Metadata.Decisions = append(s.Metadata.Decisions,
		fmt.Sprintf("appeal %s submitted at level %d", ap.ID, ap.Level))

	o.logger.Info("appeal submitted",
		"session_id", sessionID,
		"appeal_id", ap.ID,
		"appellant_id", appellantID,
	)
	return ap, nil
}

// ReviewAppeal adjudicates a submitted appeal. An overturned review
// replaces the session's verdict with the synthesized one; the
// superseded verdict id is retained in the session's decision log, and
// the replacement is promoted to a precedent.
func (o *Orchestrator) ReviewAppeal(ctx context.Context, appealID string, reviewerIDs []string) (*appeal.Decision, error) {
	if !o.config.EnableAppeals {
		return nil, ErrAppealsDisabled
	}

	decision, err := o.deps.Appeals.ReviewAppeal(appealID, reviewerIDs)
	if err != nil {
		return nil, err
	}

	ap := o.deps.Appeals.GetAppeal(appealID)
	sessionID := ""
	if ap != nil {
		sessionID = ap.SessionID
	}

	var violation *constitution.Violation
	if decision.Decision == appeal.StatusOverturned && decision.NewVerdict != nil && sessionID != "" {
		if entry, err := o.entry(sessionID); err == nil {
			entry.mu.Lock()
			s := entry.session
			superseded := ""
			if s.Verdict != nil {
				superseded = s.Verdict.ID
			}
			s.Verdict = decision.NewVerdict
			s.Metadata.Decisions = append(s.Metadata.Decisions,
				fmt.Sprintf("appeal %s overturned verdict %s, superseded by %s", appealID, superseded, decision.NewVerdict.ID))
			violation = s.Violation
			entry.mu.Unlock()
		}
		if violation != nil {
			o.promote(ctx, decision.NewVerdict, violation,
				fmt.Sprintf("appeal %s promoted verdict %s to precedent", appealID, decision.NewVerdict.ID), sessionID)
		}
	} else if sessionID != "" {
		if entry, err := o.entry(sessionID); err == nil {
			entry.mu.Lock()
			entry.session.Metadata.Decisions = append(entry.session.Metadata.Decisions,
				fmt.Sprintf("appeal %s upheld the verdict", appealID))
			entry.mu.Unlock()
		}
	}

	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordAppealDecision(string(decision.Decision))
	}
	o.record(&audit.Event{
		Type:      audit.EventAppealDecided,
		SessionID: sessionID,
		Subject:   appealID,
		Detail:    decision.Reasoning,
		Attributes: map[string]string{
			"decision":  string(decision.Decision),
			"reviewers": fmt.Sprintf("%d", len(decision.Reviewers)),
		},
	})
	o.logger.Info("appeal reviewed",
		"appeal_id", appealID,
		"session_id", sessionID,
		"decision", decision.Decision,
	)

	return decision, nil
}

// EscalateAppeal raises an already-reviewed appeal to the next level.
func (o *Orchestrator) EscalateAppeal(ctx context.Context, appealID, reason string) error {
	if !o.config.EnableAppeals {
		return ErrAppealsDisabled
	}
	return o.deps.Appeals.EscalateAppeal(appealID, reason)
}

// FinalizeAppeal closes a reviewed appeal.
func (o *Orchestrator) FinalizeAppeal(ctx context.Context, appealID string) error {
	if !o.config.EnableAppeals {
		return ErrAppealsDisabled
	}
	return o.deps.Appeals.FinalizeAppeal(appealID)
}

// CompleteSession moves a non-terminal session to COMPLETED and
// releases its admission slot.
func (o *Orchestrator) CompleteSession(sessionID string) error {
	entry, err := o.entry(sessionID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	s := entry.session
	if s.State.Terminal() {
		return &StateError{SessionID: sessionID, Op: "complete session", State: s.State}
	}
	s.EndTime = time.Now()
	o.transition(s, StateCompleted, "session completed")
	o.limiter.release()

	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordSessionFinished(string(StateCompleted), s.EndTime.Sub(s.StartTime))
	}
	o.logger.Info("session completed",
		"session_id", sessionID,
		"duration", s.EndTime.Sub(s.StartTime),
	)
	return nil
}

// FailSession moves a session to FAILED, recording the cause. It is the
// terminal escape hatch: legal from any state and idempotent on
// already-terminal sessions.
func (o *Orchestrator) FailSession(sessionID string, cause error) error {
	entry, err := o.entry(sessionID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	s := entry.session
	if s.State.Terminal() {
		return nil
	}
	if cause != nil {
		s.Metadata.Error = cause.Error()
	}
	s.EndTime = time.Now()
	o.transition(s, StateFailed, "session failed")
	o.limiter.release()

	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordSessionFinished(string(StateFailed), s.EndTime.Sub(s.StartTime))
	}
	o.record(&audit.Event{
		Type:      audit.EventSessionFailed,
		SessionID: sessionID,
		Subject:   string(StateFailed),
		Detail:    s.Metadata.Error,
	})
	o.logger.Warn("session failed",
		"session_id", sessionID,
		"error", s.Metadata.Error,
	)
	return nil
}

// GetSession returns a snapshot of the session.
func (o *Orchestrator) GetSession(sessionID string) (*Session, error) {
	entry, err := o.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.clone(), nil
}

// ListSessions returns snapshots of every session in the table.
func (o *Orchestrator) ListSessions() []*Session {
	o.mu.RLock()
	entries := make([]*sessionEntry, 0, len(o.sessions))
	for _, e := range o.sessions {
		entries = append(entries, e)
	}
	o.mu.RUnlock()

	out := make([]*Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.session.clone())
		e.mu.Unlock()
	}
	return out
}

// ActiveCount returns the number of sessions counting against the
// admission limit.
func (o *Orchestrator) ActiveCount() int64 {
	return o.limiter.active()
}

// Statistics summarizes the session table.
type Statistics struct {
	// Total is the number of sessions ever admitted.
	Total int

	// ByState counts sessions per state.
	ByState map[State]int

	// VerdictOutcomes counts verdicts per outcome.
	VerdictOutcomes map[verdict.Outcome]int

	// ActiveSessions is the number of non-terminal sessions.
	ActiveSessions int64
}

// GetStatistics summarizes all sessions.
func (o *Orchestrator) GetStatistics() Statistics {
	stats := Statistics{
		ByState:         make(map[State]int),
		VerdictOutcomes: make(map[verdict.Outcome]int),
		ActiveSessions:  o.limiter.active(),
	}

	o.mu.RLock()
	entries := make([]*sessionEntry, 0, len(o.sessions))
	for _, e := range o.sessions {
		entries = append(entries, e)
	}
	o.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		stats.Total++
		stats.ByState[e.session.State]++
		if e.session.Verdict != nil {
			stats.VerdictOutcomes[e.session.Verdict.Outcome]++
		}
		e.mu.Unlock()
	}
	return stats
}

func (o *Orchestrator) entry(sessionID string) (*sessionEntry, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	entry, ok := o.sessions[sessionID]
	if !ok {
		return nil, &SessionNotFoundError{SessionID: sessionID}
	}
	return entry, nil
}

// transition records a state change. Must be called with the session's
// entry lock held.
func (o *Orchestrator) transition(s *Session, to State, note string) {
	from := s.State
	s.State = to
	s.Metadata.StateTransitions = append(s.Metadata.StateTransitions, Transition{
		From: from,
		To:   to,
		At:   time.Now(),
		Note: note,
	})
	o.record(&audit.Event{
		Type:      audit.EventStateTransition,
		SessionID: s.ID,
		Subject:   fmt.Sprintf("%s->%s", from, to),
		Detail:    note,
	})
}

// matchPrecedents queries the store and runs the matcher outside any
// session lock. A matcher error surfaces only when its fallback is
// disabled; it leaves the session untouched.
func (o *Orchestrator) matchPrecedents(ctx context.Context, violation *constitution.Violation) ([]precedent.PrecedentMatch, error) {
	if o.deps.Matcher == nil {
		return nil, nil
	}

	stored, err := o.deps.Precedents.List(ctx)
	if err != nil {
		o.logger.Warn("precedent listing failed, generating verdict without precedents", "error", err)
		return nil, nil
	}
	if len(stored) == 0 {
		return nil, nil
	}

	decision := o.decisionContext(violation)
	start := time.Now()
	matches, err := o.deps.Matcher.FindSimilarPrecedents(ctx, decision, stored)
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordPrecedentQuery(time.Since(start), err != nil)
	}
	if err != nil {
		return nil, fmt.Errorf("precedent matching failed: %w", err)
	}
	return matches, nil
}

// decisionContext flattens a violation into the matcher's query shape.
func (o *Orchestrator) decisionContext(violation *constitution.Violation) precedent.DecisionContext {
	decision := precedent.DecisionContext{
		Action:   violation.Description,
		Actor:    violation.Violator,
		Severity: violation.Severity,
	}
	if rule, ok := o.deps.Registry.Get(violation.RuleID); ok {
		decision.Category = rule.Category
	}
	if len(violation.Context) > 0 {
		decision.Parameters = make(map[string]string, len(violation.Context))
		for k, v := range violation.Context {
			decision.Parameters[k] = fmt.Sprint(v)
		}
	}
	return decision
}

// citePrecedents increments the citation count of every precedent the
// verdict relied on. Increment failures are logged, never propagated.
func (o *Orchestrator) citePrecedents(ctx context.Context, v *verdict.Verdict) {
	for _, id := range v.Precedents {
		if err := o.deps.Precedents.IncrementCitation(ctx, id); err != nil {
			o.logger.Warn("citation increment failed", "precedent_id", id, "error", err)
		}
	}
}

// promoteVerdict promotes a high-confidence verdict to a precedent.
func (o *Orchestrator) promoteVerdict(ctx context.Context, v *verdict.Verdict, violation *constitution.Violation) {
	if !o.deps.Verdicts.HighConfidence(v) {
		return
	}
	o.promote(ctx, v, violation,
		fmt.Sprintf("verdict %s promoted to precedent", v.ID), v.SessionID)
}

// promote writes a verdict-derived precedent to the store and records
// the promotion in the session's decision log.
func (o *Orchestrator) promote(ctx context.Context, v *verdict.Verdict, violation *constitution.Violation, note, sessionID string) {
	category := constitution.Category("")
	if rule, ok := o.deps.Registry.Get(violation.RuleID); ok {
		category = rule.Category
	}
	p := o.deps.Verdicts.ToPrecedent(v, violation, category)
	if err := o.deps.Precedents.Add(ctx, p); err != nil {
		o.logger.Warn("precedent promotion failed", "verdict_id", v.ID, "error", err)
		return
	}

	if entry, err := o.entry(sessionID); err == nil {
		entry.mu.Lock()
		entry.session.Metadata.Decisions = append(entry.session.Metadata.Decisions, note)
		entry.mu.Unlock()
	}
	o.logger.Info("precedent created", "precedent_id", p.ID, "verdict_id", v.ID)
}

// record emits an audit event when a recorder is wired.
func (o *Orchestrator) record(event *audit.Event) {
	if o.deps.Recorder == nil {
		return
	}
	o.deps.Recorder.Record(event)
}

func evaluationResult(ev rules.Evaluation) string {
	switch {
	case ev.Err != nil:
		return "error"
	case ev.Matched:
		return "matched"
	default:
		return "unmatched"
	}
}
