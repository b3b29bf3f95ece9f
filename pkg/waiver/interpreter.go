package waiver

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/themis/pkg/constitution"
)

// InterpreterConfig configures waiver evaluation and lifecycle.
type InterpreterConfig struct {
	// MinJustificationLength is the minimum justification length in
	// characters. Default: 20
	MinJustificationLength int

	// MinEvidenceForApproval is the evidence count below which an
	// unconditional approval is not possible. Default: 1
	MinEvidenceForApproval int

	// AllowConditionalWaivers approves under-evidenced requests with a
	// supplemental-evidence condition instead of rejecting them.
	AllowConditionalWaivers bool

	// MaxWaiverDuration caps the granted exemption length.
	// Default: 720h
	MaxWaiverDuration time.Duration

	// AutoRevokeOnExpiration removes expired waivers from the active
	// index on first access instead of waiting for an explicit sweep.
	AutoRevokeOnExpiration bool
}

// ApplyDefaults sets default values for unset fields.
func (c *InterpreterConfig) ApplyDefaults() {
	if c.MinJustificationLength == 0 {
		c.MinJustificationLength = 20
	}
	if c.MinEvidenceForApproval == 0 {
		c.MinEvidenceForApproval = 1
	}
	if c.MaxWaiverDuration == 0 {
		c.MaxWaiverDuration = 720 * time.Hour
	}
}

// Interpreter evaluates waiver requests and owns the active-waiver
// index. The index holds at most one active waiver per rule id.
type Interpreter struct {
	config InterpreterConfig
	logger *slog.Logger

	mu sync.Mutex
	// active maps rule id to the in-force waiver. Expired entries are
	// removed lazily or by an explicit sweep depending on configuration.
	active map[string]*Decision
	// history keeps every decision ever made, for statistics.
	history []*Decision

	// now is swappable for tests.
	now func() time.Time
}

// NewInterpreter creates a waiver interpreter.
func NewInterpreter(config InterpreterConfig, logger *slog.Logger) *Interpreter {
	config.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		config: config,
		logger: logger.With("component", "waiver"),
		active: make(map[string]*Decision),
		now:    time.Now,
	}
}

// EvaluateWaiver judges a request against a rule. The checks run in a
// fixed order; the first rejecting check decides, approval modifiers
// accumulate.
func (i *Interpreter) EvaluateWaiver(request *Request, rule *constitution.Rule, arbiterID string) (*Evaluation, error) {
	if request == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}
	if rule == nil {
		return nil, fmt.Errorf("rule cannot be nil")
	}
	if request.RuleID != rule.ID {
		return nil, fmt.Errorf("request targets rule %s but rule %s was supplied", request.RuleID, rule.ID)
	}

	if !rule.Waivable {
		return &Evaluation{
			ShouldApprove: false,
			Reasoning:     fmt.Sprintf("rule %s is not waivable", rule.ID),
			Confidence:    1.0,
		}, nil
	}

	if len(request.Justification) < i.config.MinJustificationLength {
		return &Evaluation{
			ShouldApprove: false,
			Reasoning: fmt.Sprintf("insufficient justification: %d characters provided, at least %d required",
				len(request.Justification), i.config.MinJustificationLength),
			Confidence: 0.9,
		}, nil
	}

	eval := &Evaluation{
		ShouldApprove: true,
		Confidence:    0.8,
		Reasoning:     fmt.Sprintf("justification and evidence support a temporary exemption from rule %s", rule.ID),
	}

	if len(request.Evidence) < i.config.MinEvidenceForApproval {
		if !i.config.AllowConditionalWaivers {
			return &Evaluation{
				ShouldApprove: false,
				Reasoning: fmt.Sprintf("insufficient evidence: %d items provided, at least %d required",
					len(request.Evidence), i.config.MinEvidenceForApproval),
				Confidence: 0.85,
			}, nil
		}
		eval.Conditions = append(eval.Conditions,
			fmt.Sprintf("supplemental evidence must be provided within 7 days (%d of %d items supplied)",
				len(request.Evidence), i.config.MinEvidenceForApproval))
		eval.Confidence = 0.6
		eval.Reasoning = fmt.Sprintf("conditionally approved: evidence is below the approval bar for rule %s", rule.ID)
	}

	if request.RequestedDuration > i.config.MaxWaiverDuration {
		eval.RecommendedDuration = i.config.MaxWaiverDuration
		eval.Reasoning += fmt.Sprintf("; requested duration %s exceeds the maximum, reduced to %s",
			request.RequestedDuration, i.config.MaxWaiverDuration)
	}

	if rule.Severity == constitution.SeverityCritical {
		eval.Conditions = append(eval.Conditions,
			"periodic progress reports are required for the lifetime of the waiver")
	}

	if i.isActive(rule.ID) {
		return &Evaluation{
			ShouldApprove: false,
			Reasoning:     fmt.Sprintf("active waiver already exists for rule %s", rule.ID),
			Confidence:    1.0,
		}, nil
	}

	i.logger.Debug("waiver evaluated",
		"rule_id", rule.ID,
		"arbiter_id", arbiterID,
		"approve", eval.ShouldApprove,
		"conditions", len(eval.Conditions),
	)

	return eval, nil
}

// ProcessWaiver evaluates a request and persists the outcome. Approved
// waivers are indexed as active under the rule id.
func (i *Interpreter) ProcessWaiver(request *Request, rule *constitution.Rule, arbiterID string) (*Decision, error) {
	eval, err := i.EvaluateWaiver(request, rule, arbiterID)
	if err != nil {
		return nil, err
	}

	now := i.now()
	decision := &Decision{
		RuleID:      rule.ID,
		RequestedBy: request.RequestedBy,
		DecidedBy:   arbiterID,
		Reasoning:   eval.Reasoning,
		Confidence:  eval.Confidence,
		Conditions:  eval.Conditions,
		DecidedAt:   now,
	}

	if eval.ShouldApprove {
		decision.Status = StatusApproved
		decision.ApprovedDuration = request.RequestedDuration
		if eval.RecommendedDuration > 0 {
			decision.ApprovedDuration = eval.RecommendedDuration
		}
		decision.ExpiresAt = now.Add(decision.ApprovedDuration)
		if i.config.AutoRevokeOnExpiration {
			decision.AutoRevokeAt = decision.ExpiresAt
		}
	} else {
		decision.Status = StatusRejected
	}

	i.mu.Lock()
	if decision.Status == StatusApproved {
		// The evaluation ran outside this lock, so another approval may
		// have been indexed for the rule since. Re-check before indexing;
		// the index holds at most one active waiver per rule.
		if current, ok := i.active[rule.ID]; ok && !current.Expired(now) {
			decision.Status = StatusRejected
			decision.Reasoning = fmt.Sprintf("active waiver already exists for rule %s", rule.ID)
			decision.Confidence = 1.0
			decision.Conditions = nil
			decision.ApprovedDuration = 0
			decision.ExpiresAt = time.Time{}
			decision.AutoRevokeAt = time.Time{}
		} else {
			i.active[rule.ID] = decision
		}
	}
	i.history = append(i.history, decision)
	i.mu.Unlock()

	i.logger.Info("waiver processed",
		"rule_id", rule.ID,
		"status", decision.Status,
		"approved_duration", decision.ApprovedDuration,
	)

	return decision, nil
}

// IsWaiverActive reports whether a non-expired, non-revoked waiver
// exists for the rule. With auto-revocation configured, the first check
// after expiry removes the entry from the active index.
func (i *Interpreter) IsWaiverActive(ruleID string) bool {
	return i.isActive(ruleID)
}

func (i *Interpreter) isActive(ruleID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	decision, ok := i.active[ruleID]
	if !ok {
		return false
	}
	if decision.Expired(i.now()) {
		if i.config.AutoRevokeOnExpiration {
			decision.Status = StatusExpired
			delete(i.active, ruleID)
		}
		return false
	}
	return true
}

// CleanupExpiredWaivers removes every expired entry from the active
// index and returns the count removed.
func (i *Interpreter) CleanupExpiredWaivers() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	removed := 0
	for ruleID, decision := range i.active {
		if decision.Expired(now) {
			decision.Status = StatusExpired
			delete(i.active, ruleID)
			removed++
		}
	}
	return removed
}

// RevokeWaiver revokes the active waiver for a rule.
func (i *Interpreter) RevokeWaiver(ruleID, reason string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	decision, ok := i.active[ruleID]
	if !ok || decision.Expired(i.now()) {
		return fmt.Errorf("no active waiver for rule %s", ruleID)
	}

	decision.Status = StatusRevoked
	if reason != "" {
		decision.Reasoning += "; revoked: " + reason
	}
	delete(i.active, ruleID)

	i.logger.Info("waiver revoked", "rule_id", ruleID, "reason", reason)
	return nil
}

// ExtendWaiver lengthens the active waiver for a rule. The total
// duration, measured from the original approval, may not exceed the
// configured maximum.
func (i *Interpreter) ExtendWaiver(ruleID string, extension time.Duration) error {
	if extension <= 0 {
		return fmt.Errorf("extension must be positive")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	decision, ok := i.active[ruleID]
	if !ok || decision.Expired(i.now()) {
		return fmt.Errorf("no active waiver for rule %s", ruleID)
	}

	extended := decision.ApprovedDuration + extension
	if extended > i.config.MaxWaiverDuration {
		return fmt.Errorf("extension would exceed maximum waiver duration %s from the original approval",
			i.config.MaxWaiverDuration)
	}

	decision.ApprovedDuration = extended
	decision.ExpiresAt = decision.DecidedAt.Add(extended)
	if i.config.AutoRevokeOnExpiration {
		decision.AutoRevokeAt = decision.ExpiresAt
	}

	i.logger.Info("waiver extended",
		"rule_id", ruleID,
		"extension", extension,
		"expires_at", decision.ExpiresAt,
	)
	return nil
}

// GetStatistics summarizes the decision history.
func (i *Interpreter) GetStatistics() Statistics {
	i.mu.Lock()
	defer i.mu.Unlock()

	stats := Statistics{
		Total:         len(i.history),
		ByStatus:      make(map[Status]int),
		ActiveWaivers: len(i.active),
	}

	var approvedTotal time.Duration
	approved := 0
	for _, decision := range i.history {
		stats.ByStatus[decision.Status]++
		if decision.ApprovedDuration > 0 {
			approvedTotal += decision.ApprovedDuration
			approved++
		}
	}
	if approved > 0 {
		stats.MeanApprovedDuration = approvedTotal / time.Duration(approved)
	}
	return stats
}
