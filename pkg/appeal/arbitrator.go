package appeal

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/themis/pkg/verdict"
)

// ArbitratorConfig configures appeal handling.
type ArbitratorConfig struct {
	// MaxAppealLevels bounds escalation. Default: 3
	MaxAppealLevels int

	// MinEvidenceForAppeal is the minimum new-evidence count to file.
	// Default: 1
	MinEvidenceForAppeal int

	// MinGroundsLength is the minimum grounds length in characters.
	// Default: 20
	MinGroundsLength int

	// RequireUnanimous raises the overturn bar to reflect a unanimity
	// requirement among reviewers.
	RequireUnanimous bool
}

// ApplyDefaults sets default values for unset fields.
func (c *ArbitratorConfig) ApplyDefaults() {
	if c.MaxAppealLevels == 0 {
		c.MaxAppealLevels = 3
	}
	if c.MinEvidenceForAppeal == 0 {
		c.MinEvidenceForAppeal = 1
	}
	if c.MinGroundsLength == 0 {
		c.MinGroundsLength = 20
	}
}

// overturn bars. The raised bar applies when unanimity is required.
const (
	overturnBar          = 0.6
	unanimousOverturnBar = 0.75
)

// Arbitrator owns the appeal table and adjudicates reviews.
type Arbitrator struct {
	config ArbitratorConfig
	logger *slog.Logger

	mu      sync.Mutex
	appeals map[string]*Appeal
	// originals maps appeal id to the verdict under challenge.
	originals map[string]*verdict.Verdict
	upheld     int
	overturned int
}

// NewArbitrator creates an appeal arbitrator.
func NewArbitrator(config ArbitratorConfig, logger *slog.Logger) *Arbitrator {
	config.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Arbitrator{
		config:    config,
		logger:    logger.With("component", "appeal"),
		appeals:   make(map[string]*Appeal),
		originals: make(map[string]*verdict.Verdict),
	}
}

// SubmitAppeal files a challenge against a verdict. Grounds below the
// minimum length and evidence below the minimum count are rejected
// synchronously with nothing recorded.
func (a *Arbitrator) SubmitAppeal(sessionID string, original *verdict.Verdict, appellantID, grounds string, newEvidence []string) (*Appeal, error) {
	if original == nil {
		return nil, fmt.Errorf("no verdict to appeal")
	}
	if len(grounds) < a.config.MinGroundsLength {
		return nil, fmt.Errorf("appeal grounds must be at least %d characters, got %d",
			a.config.MinGroundsLength, len(grounds))
	}
	if len(newEvidence) < a.config.MinEvidenceForAppeal {
		return nil, fmt.Errorf("appeal requires at least %d new evidence items, got %d",
			a.config.MinEvidenceForAppeal, len(newEvidence))
	}

	appeal := &Appeal{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		AppellantID: appellantID,
		Level:       1,
		Status:      StatusSubmitted,
		Grounds:     grounds,
		NewEvidence: append([]string(nil), newEvidence...),
		SubmittedAt: time.Now(),
	}

	a.mu.Lock()
	a.appeals[appeal.ID] = appeal
	a.originals[appeal.ID] = original
	a.mu.Unlock()

	a.logger.Info("appeal submitted",
		"appeal_id", appeal.ID,
		"session_id", sessionID,
		"appellant_id", appellantID,
		"evidence_count", len(newEvidence),
	)

	return appeal, nil
}

// ReviewAppeal adjudicates a submitted appeal. The outcome weighs
// grounds strength, evidence volume, and reviewer count; unanimity
// requirements raise the overturn bar. An overturn synthesizes a
// replacement verdict whose reasoning extends the original's.
func (a *Arbitrator) ReviewAppeal(appealID string, reviewerIDs []string) (*Decision, error) {
	if len(reviewerIDs) == 0 {
		return nil, fmt.Errorf("at least one reviewer is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	appeal, ok := a.appeals[appealID]
	if !ok {
		return nil, fmt.Errorf("appeal %s not found", appealID)
	}
	if appeal.Status != StatusSubmitted {
		return nil, fmt.Errorf("appeal %s is not in submitted state", appealID)
	}
	original := a.originals[appealID]

	score := a.overturnScore(appeal, reviewerIDs)
	bar := overturnBar
	if a.config.RequireUnanimous {
		bar = unanimousOverturnBar
	}

	decision := &Decision{
		AppealID:  appealID,
		Reviewers: append([]string(nil), reviewerIDs...),
	}

	if score >= bar {
		decision.Decision = StatusOverturned
		decision.Reasoning = fmt.Sprintf("appeal succeeds: combined strength %.2f clears the %.2f bar at level %d",
			score, bar, appeal.Level)
		decision.NewVerdict = a.superseding(original, appeal, decision.Reasoning)
		a.overturned++
	} else {
		decision.Decision = StatusUpheld
		decision.Reasoning = fmt.Sprintf("original verdict stands: combined strength %.2f is below the %.2f bar at level %d",
			score, bar, appeal.Level)
		a.upheld++
	}

	appeal.Status = decision.Decision
	appeal.Reviewers = append([]string(nil), reviewerIDs...)
	appeal.ReviewedAt = time.Now()

	a.logger.Info("appeal reviewed",
		"appeal_id", appealID,
		"decision", decision.Decision,
		"level", appeal.Level,
		"reviewers", len(reviewerIDs),
	)

	return decision, nil
}

// EscalateAppeal raises a reviewed appeal to the next tier and reopens
// it for review.
func (a *Arbitrator) EscalateAppeal(appealID, reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	appeal, ok := a.appeals[appealID]
	if !ok {
		return fmt.Errorf("appeal %s not found", appealID)
	}
	if appeal.Status == StatusFinalized {
		return fmt.Errorf("appeal %s is finalized", appealID)
	}
	if appeal.Status != StatusUpheld && appeal.Status != StatusOverturned {
		return fmt.Errorf("appeal %s has not been reviewed at level %d", appealID, appeal.Level)
	}
	if appeal.Level >= a.config.MaxAppealLevels {
		return fmt.Errorf("appeal %s is already at maximum level %d", appealID, a.config.MaxAppealLevels)
	}

	appeal.Level++
	appeal.Status = StatusSubmitted
	appeal.Metadata.EscalationReason = reason

	a.logger.Info("appeal escalated",
		"appeal_id", appealID,
		"level", appeal.Level,
		"reason", reason,
	)
	return nil
}

// FinalizeAppeal moves a reviewed appeal to its terminal state. A
// submitted appeal must be reviewed first; unknown ids are an error.
func (a *Arbitrator) FinalizeAppeal(appealID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	appeal, ok := a.appeals[appealID]
	if !ok {
		return fmt.Errorf("appeal %s not found", appealID)
	}
	if appeal.Status == StatusSubmitted {
		return fmt.Errorf("appeal %s is awaiting review and cannot be finalized", appealID)
	}
	if appeal.Status == StatusFinalized {
		return nil
	}

	appeal.Status = StatusFinalized
	appeal.Metadata.FinalizedAt = time.Now()

	a.logger.Info("appeal finalized", "appeal_id", appealID)
	return nil
}

// GetAppeal returns a copy of the appeal, or nil when unknown.
func (a *Arbitrator) GetAppeal(appealID string) *Appeal {
	a.mu.Lock()
	defer a.mu.Unlock()

	appeal, ok := a.appeals[appealID]
	if !ok {
		return nil
	}
	cp := *appeal
	return &cp
}

// GetStatistics summarizes the appeal history.
func (a *Arbitrator) GetStatistics() Statistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := Statistics{
		Total:    len(a.appeals),
		ByStatus: make(map[Status]int),
		ByLevel:  make(map[int]int),
	}

	levelTotal := 0
	for _, appeal := range a.appeals {
		stats.ByStatus[appeal.Status]++
		stats.ByLevel[appeal.Level]++
		levelTotal += appeal.Level
	}
	if stats.Total > 0 {
		stats.AverageLevel = float64(levelTotal) / float64(stats.Total)
	}
	if reviewed := a.upheld + a.overturned; reviewed > 0 {
		stats.OverturnRate = float64(a.overturned) / float64(reviewed)
	}
	return stats
}

// overturnScore combines grounds strength, evidence volume, and reviewer
// count. Each signal saturates so the score stays in [0,1]; more
// evidence or reviewers never lowers it.
func (a *Arbitrator) overturnScore(appeal *Appeal, reviewerIDs []string) float64 {
	grounds := float64(len(appeal.Grounds)) / 200
	if grounds > 1 {
		grounds = 1
	}
	evidence := float64(len(appeal.NewEvidence)) / 5
	if evidence > 1 {
		evidence = 1
	}
	reviewers := float64(len(reviewerIDs)) / 3
	if reviewers > 1 {
		reviewers = 1
	}
	return grounds*0.4 + evidence*0.4 + reviewers*0.2
}

// superseding builds the replacement verdict for an overturned appeal.
// Its reasoning chain is a strict superset of the original's.
func (a *Arbitrator) superseding(original *verdict.Verdict, appeal *Appeal, reasoning string) *verdict.Verdict {
	replacement := &verdict.Verdict{
		ID:           uuid.NewString(),
		SessionID:    original.SessionID,
		Outcome:      overturnedOutcome(original.Outcome),
		Reasoning:    append([]verdict.ReasoningStep(nil), original.Reasoning...),
		RulesApplied: append([]string(nil), original.RulesApplied...),
		Evidence:     append(append([]string(nil), original.Evidence...), appeal.NewEvidence...),
		Precedents:   append([]string(nil), original.Precedents...),
		Confidence:   original.Confidence,
		IssuedBy:     fmt.Sprintf("appeal-level-%d", appeal.Level),
		IssuedAt:     time.Now(),
	}

	step := len(replacement.Reasoning)
	replacement.Reasoning = append(replacement.Reasoning,
		verdict.ReasoningStep{
			Step:         step + 1,
			Description:  fmt.Sprintf("appeal by %s introduced new evidence: %s", appeal.AppellantID, appeal.Grounds),
			EvidenceRefs: appeal.NewEvidence,
		},
		verdict.ReasoningStep{
			Step:        step + 2,
			Description: reasoning,
		},
	)

	replacement.Append(fmt.Sprintf("verdict %s overturned on appeal %s", original.ID, appeal.ID))
	return replacement
}

// overturnedOutcome inverts a decision. A deferred original resolves in
// the appellant's favor.
func overturnedOutcome(o verdict.Outcome) verdict.Outcome {
	switch o {
	case verdict.OutcomeRejected:
		return verdict.OutcomeApproved
	case verdict.OutcomeApproved:
		return verdict.OutcomeRejected
	}
	return verdict.OutcomeApproved
}
