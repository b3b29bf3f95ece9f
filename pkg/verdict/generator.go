package verdict

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mercator-hq/themis/pkg/constitution"
	"mercator-hq/themis/pkg/precedent"
	"mercator-hq/themis/pkg/rules"
)

// GeneratorConfig configures verdict generation.
type GeneratorConfig struct {
	// HighConfidenceThreshold marks verdicts eligible for precedent
	// promotion. Default: 0.85
	HighConfidenceThreshold float64
}

// ApplyDefaults sets default values for unset fields.
func (c *GeneratorConfig) ApplyDefaults() {
	if c.HighConfidenceThreshold == 0 {
		c.HighConfidenceThreshold = 0.85
	}
}

// Generator produces verdicts from rule-evaluation results and
// precedent matches. Confidence combines rule-match strength with
// precedent agreement.
type Generator struct {
	config GeneratorConfig
	logger *slog.Logger
}

// NewGenerator creates a verdict generator.
func NewGenerator(config GeneratorConfig, logger *slog.Logger) *Generator {
	config.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		config: config,
		logger: logger.With("component", "verdict"),
	}
}

// Generate produces a verdict for the session. Rule results carrying an
// evaluation error contribute a reasoning step but no decision signal.
func (g *Generator) Generate(sessionID string, violation *constitution.Violation, evaluations []rules.Evaluation, matches []precedent.PrecedentMatch, issuedBy string) (*Verdict, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id cannot be empty")
	}
	if violation == nil {
		return nil, fmt.Errorf("violation cannot be nil")
	}

	v := &Verdict{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Evidence:  append([]string(nil), violation.Evidence...),
		IssuedBy:  issuedBy,
		IssuedAt:  time.Now(),
	}

	var (
		step            int
		matchedRules    int
		evidencedRules  int
		decided         int
		confidenceTotal float64
	)

	for _, eval := range evaluations {
		step++
		if eval.Err != nil {
			v.Reasoning = append(v.Reasoning, ReasoningStep{
				Step:        step,
				Description: fmt.Sprintf("rule %s could not be evaluated: %v", eval.RuleID, eval.Err),
				RuleRefs:    []string{eval.RuleID},
			})
			continue
		}

		decided++
		confidenceTotal += eval.Confidence
		desc := fmt.Sprintf("rule %s did not match the violation", eval.RuleID)
		if eval.Matched {
			matchedRules++
			v.RulesApplied = append(v.RulesApplied, eval.RuleID)
			if eval.EvidenceSatisfied {
				evidencedRules++
				desc = fmt.Sprintf("rule %s matched with complete evidence", eval.RuleID)
			} else {
				desc = fmt.Sprintf("rule %s matched but required evidence is incomplete", eval.RuleID)
			}
		}
		v.Reasoning = append(v.Reasoning, ReasoningStep{
			Step:         step,
			Description:  desc,
			EvidenceRefs: violation.Evidence,
			RuleRefs:     []string{eval.RuleID},
			Confidence:   eval.Confidence,
		})
	}

	v.Outcome = chooseOutcome(decided, matchedRules, evidencedRules)

	for _, match := range matches {
		step++
		v.Precedents = append(v.Precedents, match.Precedent.ID)
		agreement := "reaches a different outcome"
		if Outcome(match.Precedent.Verdict.Outcome) == v.Outcome {
			agreement = "reaches the same outcome"
		}
		v.Reasoning = append(v.Reasoning, ReasoningStep{
			Step: step,
			Description: fmt.Sprintf("precedent %q (similarity %.2f) %s",
				match.Precedent.Title, match.Score, agreement),
			Confidence: match.Score,
		})
	}

	v.Confidence = g.confidence(decided, confidenceTotal, v.Outcome, matches)

	step++
	v.Reasoning = append(v.Reasoning, ReasoningStep{
		Step: step,
		Description: fmt.Sprintf("outcome %s: %d of %d rules matched, %d fully evidenced, %d precedents cited",
			v.Outcome, matchedRules, decided, evidencedRules, len(matches)),
		RuleRefs:   v.RulesApplied,
		Confidence: v.Confidence,
	})

	v.Append(fmt.Sprintf("verdict issued by %s with outcome %s", issuedBy, v.Outcome))

	g.logger.Info("verdict generated",
		"session_id", sessionID,
		"outcome", v.Outcome,
		"confidence", v.Confidence,
		"rules_applied", len(v.RulesApplied),
		"precedents_cited", len(v.Precedents),
	)

	return v, nil
}

// HighConfidence reports whether the verdict is eligible for precedent
// promotion.
func (g *Generator) HighConfidence(v *Verdict) bool {
	return v != nil && v.Confidence >= g.config.HighConfidenceThreshold
}

// ToPrecedent snapshots a verdict into a new precedent with citation
// count zero.
func (g *Generator) ToPrecedent(v *Verdict, violation *constitution.Violation, category constitution.Category) *precedent.Precedent {
	keyFacts := []string{violation.Description}
	for _, e := range violation.Evidence {
		keyFacts = append(keyFacts, "evidence: "+e)
	}

	var summary []string
	for _, rs := range v.Reasoning {
		summary = append(summary, rs.Description)
	}

	return &precedent.Precedent{
		ID:       uuid.NewString(),
		Title:    violation.Description,
		KeyFacts: keyFacts,
		Applicability: precedent.Applicability{
			Category: category,
			Severity: violation.Severity,
		},
		Verdict: precedent.VerdictSnapshot{
			VerdictID:  v.ID,
			Outcome:    string(v.Outcome),
			Confidence: v.Confidence,
		},
		RulesInvolved:    append([]string(nil), v.RulesApplied...),
		ReasoningSummary: strings.Join(summary, "; "),
		CitationCount:    0,
		CreatedAt:        time.Now(),
	}
}

// chooseOutcome maps the rule signal to a decision. No matched rules
// clears the conduct; matched and fully evidenced rules confirm the
// violation; anything weaker defers to review.
func chooseOutcome(decided, matched, evidenced int) Outcome {
	switch {
	case decided == 0:
		return OutcomeNeedsReview
	case matched == 0:
		return OutcomeApproved
	case evidenced == matched:
		return OutcomeRejected
	}
	return OutcomeNeedsReview
}

// confidence blends mean rule confidence with score-weighted precedent
// agreement. Without precedents the rule signal stands alone.
func (g *Generator) confidence(decided int, confidenceTotal float64, outcome Outcome, matches []precedent.PrecedentMatch) float64 {
	ruleSignal := 0.5
	if decided > 0 {
		ruleSignal = confidenceTotal / float64(decided)
	}

	if len(matches) == 0 {
		return ruleSignal
	}

	var agree, total float64
	for _, match := range matches {
		total += match.Score
		if Outcome(match.Precedent.Verdict.Outcome) == outcome {
			agree += match.Score
		}
	}
	agreement := 0.5
	if total > 0 {
		agreement = agree / total
	}

	combined := ruleSignal*0.7 + agreement*0.3
	if combined > 1 {
		combined = 1
	}
	return combined
}
