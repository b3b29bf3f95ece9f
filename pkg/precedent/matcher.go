package precedent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"mercator-hq/themis/pkg/constitution"
)

// Weights are the relative contributions of each matching signal. They
// are normalized before use, so only their ratios matter.
type Weights struct {
	Entity     float64
	Intent     float64
	Semantic   float64
	Category   float64
	Severity   float64
	Conditions float64
}

// DefaultWeights returns the standard signal weighting.
func DefaultWeights() Weights {
	return Weights{
		Entity:     0.2,
		Intent:     0.2,
		Semantic:   0.3,
		Category:   0.1,
		Severity:   0.1,
		Conditions: 0.1,
	}
}

func (w Weights) sum() float64 {
	return w.Entity + w.Intent + w.Semantic + w.Category + w.Severity + w.Conditions
}

// MatcherConfig configures the similarity pipeline.
type MatcherConfig struct {
	// MinSimilarityThreshold drops matches scoring below it.
	// Default: 0.3
	MinSimilarityThreshold float64

	// MaxResults caps the number of returned matches.
	// Default: 10
	MaxResults int

	// EnableFallback degrades to rule-based overlap scoring when the
	// primary analyzer fails, instead of surfacing the error.
	// Default: true
	EnableFallback bool

	// Weights are the per-signal weights.
	Weights Weights
}

// ApplyDefaults sets default values for unset fields.
func (c *MatcherConfig) ApplyDefaults() {
	if c.MinSimilarityThreshold == 0 {
		c.MinSimilarityThreshold = 0.3
	}
	if c.MaxResults == 0 {
		c.MaxResults = 10
	}
	if c.Weights.sum() == 0 {
		c.Weights = DefaultWeights()
	}
}

// Matcher ranks stored precedents by similarity to a decision context.
type Matcher struct {
	primary  Analyzer
	fallback *RuleBasedAnalyzer
	config   MatcherConfig
	logger   *slog.Logger
}

// NewMatcher creates a matcher. The primary analyzer is optional; when
// nil the rule-based analyzer serves both roles.
func NewMatcher(primary Analyzer, config MatcherConfig, logger *slog.Logger) *Matcher {
	config.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	fallback := NewRuleBasedAnalyzer()
	if primary == nil {
		primary = fallback
	}
	return &Matcher{
		primary:  primary,
		fallback: fallback,
		config:   config,
		logger:   logger.With("component", "precedent"),
	}
}

// FindSimilarPrecedents ranks precedents against the decision context.
// Empty inputs return an empty list. Precedents without applicability
// data are excluded without error. A primary analyzer failure degrades
// to rule-based scoring when fallback is enabled; with fallback disabled
// the failure is returned.
func (m *Matcher) FindSimilarPrecedents(ctx context.Context, decision DecisionContext, precedents []*Precedent) ([]PrecedentMatch, error) {
	if decision.Empty() || len(precedents) == 0 {
		return []PrecedentMatch{}, nil
	}

	eligible := make([]*Precedent, 0, len(precedents))
	for _, p := range precedents {
		if p == nil || p.Applicability.Empty() {
			continue
		}
		eligible = append(eligible, p)
	}
	if len(eligible) == 0 {
		return []PrecedentMatch{}, nil
	}

	matches, err := m.match(ctx, m.primary, decision, eligible)
	if err != nil {
		if !m.config.EnableFallback {
			return nil, fmt.Errorf("precedent matching failed: %w", err)
		}
		m.logger.Warn("analyzer failed, degrading to rule-based matching", "error", err)
		matches, err = m.match(ctx, m.fallback, decision, eligible)
		if err != nil {
			return nil, fmt.Errorf("fallback matching failed: %w", err)
		}
	}

	filtered := matches[:0]
	for _, match := range matches {
		if match.Score >= m.config.MinSimilarityThreshold {
			filtered = append(filtered, match)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		return filtered[i].Precedent.ID < filtered[j].Precedent.ID
	})

	if len(filtered) > m.config.MaxResults {
		filtered = filtered[:m.config.MaxResults]
	}
	return filtered, nil
}

// match runs the full pipeline with one analyzer.
func (m *Matcher) match(ctx context.Context, analyzer Analyzer, decision DecisionContext, precedents []*Precedent) ([]PrecedentMatch, error) {
	queryText := decision.Text()

	queryEntities, err := analyzer.ExtractEntities(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("entity extraction: %w", err)
	}

	queryIntent, err := analyzer.ClassifyIntent(ctx, decision.Action)
	if err != nil {
		return nil, fmt.Errorf("intent classification: %w", err)
	}

	docs := make(map[string]string, len(precedents))
	for _, p := range precedents {
		docs[p.ID] = precedentText(p)
	}
	semantic, err := analyzer.SemanticScores(ctx, queryText, docs)
	if err != nil {
		return nil, fmt.Errorf("semantic similarity: %w", err)
	}

	weights := m.config.Weights
	total := weights.sum()

	matches := make([]PrecedentMatch, 0, len(precedents))
	for _, p := range precedents {
		factEntities, err := analyzer.ExtractEntities(ctx, strings.Join(p.KeyFacts, " "))
		if err != nil {
			return nil, fmt.Errorf("entity extraction for %s: %w", p.ID, err)
		}

		precedentIntent, err := analyzer.ClassifyIntent(ctx, p.Title+" "+p.ReasoningSummary)
		if err != nil {
			return nil, fmt.Errorf("intent classification for %s: %w", p.ID, err)
		}

		entityScore, shared := entityOverlap(queryEntities, factEntities)
		sem := semantic[p.ID]

		factors := MatchFactors{
			EntityOverlap:     entityScore,
			IntentAlignment:   intentAlignment(queryIntent, precedentIntent),
			SemanticScore:     sem.Score,
			CategoryMatch:     categoryMatch(decision.Category, p.Applicability.Category),
			SeverityMatch:     severityMatch(decision.Severity, p.Applicability.Severity),
			ConditionsOverlap: conditionsOverlap(queryText, p.Applicability.Conditions),
		}

		score := (weights.Entity*factors.EntityOverlap +
			weights.Intent*factors.IntentAlignment +
			weights.Semantic*factors.SemanticScore +
			weights.Category*factors.CategoryMatch +
			weights.Severity*factors.SeverityMatch +
			weights.Conditions*factors.ConditionsOverlap) / total

		matches = append(matches, PrecedentMatch{
			Precedent:          p,
			Score:              score,
			Factors:            factors,
			MatchingEntities:   shared,
			IntentAlignment:    factors.IntentAlignment,
			SemanticSimilarity: factors.SemanticScore,
			Reasoning:          matchReasoning(p, factors),
		})
	}
	return matches, nil
}

func precedentText(p *Precedent) string {
	parts := make([]string, 0, len(p.KeyFacts)+2)
	parts = append(parts, p.Title, p.ReasoningSummary)
	parts = append(parts, p.KeyFacts...)
	return strings.Join(parts, " ")
}

// entityOverlap is the Jaccard overlap of entity values, with the shared
// values returned for reporting.
func entityOverlap(query, facts []Entity) (float64, []string) {
	if len(query) == 0 || len(facts) == 0 {
		return 0, nil
	}
	querySet := make(map[string]struct{}, len(query))
	for _, e := range query {
		querySet[e.Value] = struct{}{}
	}
	factSet := make(map[string]struct{}, len(facts))
	for _, e := range facts {
		factSet[e.Value] = struct{}{}
	}
	return jaccard(querySet, factSet)
}

// intentAlignment compares two intent classifications. Equal intents
// align fully, an intent appearing among the other's alternatives aligns
// partially, anything else not at all. Confidence discounts the result.
func intentAlignment(a, b IntentResult) float64 {
	confidence := a.Confidence
	if b.Confidence < confidence {
		confidence = b.Confidence
	}
	switch {
	case a.Intent == "unknown" || b.Intent == "unknown":
		return 0
	case a.Intent == b.Intent:
		return confidence
	case contains(a.Alternatives, b.Intent) || contains(b.Alternatives, a.Intent):
		return confidence * 0.5
	}
	return 0
}

func categoryMatch(query, applicable constitution.Category) float64 {
	if query == "" || applicable == "" {
		return 0
	}
	if query == applicable {
		return 1
	}
	return 0
}

// severityMatch gives full credit for equal severities and half credit
// for adjacent ranks.
func severityMatch(query, applicable constitution.Severity) float64 {
	qr, ar := query.Rank(), applicable.Rank()
	if qr < 0 || ar < 0 {
		return 0
	}
	switch diff := qr - ar; {
	case diff == 0:
		return 1
	case diff == 1 || diff == -1:
		return 0.5
	}
	return 0
}

// conditionsOverlap is the fraction of the precedent's applicability
// conditions that the context text mentions.
func conditionsOverlap(queryText string, conditions []string) float64 {
	if len(conditions) == 0 {
		return 0
	}
	queryTokens := tokenSet(queryText)
	mentioned := 0
	for _, cond := range conditions {
		for tok := range tokenSet(cond) {
			if _, ok := queryTokens[tok]; ok {
				mentioned++
				break
			}
		}
	}
	return float64(mentioned) / float64(len(conditions))
}

func matchReasoning(p *Precedent, f MatchFactors) string {
	dominant := "semantic similarity"
	best := f.SemanticScore
	if f.EntityOverlap > best {
		dominant, best = "shared entities", f.EntityOverlap
	}
	if f.IntentAlignment > best {
		dominant, best = "intent alignment", f.IntentAlignment
	}
	if f.CategoryMatch > best {
		dominant = "matching category"
	}
	return fmt.Sprintf("precedent %q matched primarily on %s (semantic=%.2f, entities=%.2f, intent=%.2f)",
		p.Title, dominant, f.SemanticScore, f.EntityOverlap, f.IntentAlignment)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
