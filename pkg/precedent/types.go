// Package precedent stores prior arbitration decisions and ranks them by
// similarity to a new decision context. Matching combines entity,
// intent, and semantic signals with categorical overlap; when ML-backed
// analysis fails the matcher degrades to rule-based overlap scoring.
package precedent

import (
	"strings"
	"time"

	"mercator-hq/themis/pkg/constitution"
)

// Applicability describes the circumstances a precedent speaks to.
// A precedent with a zero-value Applicability cannot be matched and is
// excluded from results.
type Applicability struct {
	// Category is the governance domain the precedent applies to.
	Category constitution.Category `json:"category"`

	// Severity is the violation severity the precedent applies to.
	Severity constitution.Severity `json:"severity"`

	// Conditions lists the circumstances under which the precedent holds.
	Conditions []string `json:"conditions"`
}

// Empty reports whether the applicability carries no usable data.
func (a Applicability) Empty() bool {
	return a.Category == "" && a.Severity == "" && len(a.Conditions) == 0
}

// VerdictSnapshot is the portion of a verdict a precedent preserves.
// It is a copy taken at promotion time; later appeals do not alter it.
type VerdictSnapshot struct {
	VerdictID  string  `json:"verdict_id"`
	Outcome    string  `json:"outcome"`
	Confidence float64 `json:"confidence"`
}

// Precedent is a stored prior decision. The store is append-only;
// only CitationCount changes after creation.
type Precedent struct {
	// ID uniquely identifies the precedent.
	ID string `json:"id"`

	// Title is a short human-readable summary.
	Title string `json:"title"`

	// KeyFacts are the salient facts of the original case.
	KeyFacts []string `json:"key_facts"`

	// Applicability scopes the precedent to comparable cases.
	Applicability Applicability `json:"applicability"`

	// Verdict is a snapshot of the decision that created this precedent.
	Verdict VerdictSnapshot `json:"verdict"`

	// RulesInvolved lists the rule ids the original decision applied.
	RulesInvolved []string `json:"rules_involved"`

	// ReasoningSummary condenses the original reasoning chain.
	ReasoningSummary string `json:"reasoning_summary"`

	// CitationCount is how many times this precedent has informed a new
	// verdict. Starts at 0.
	CitationCount int `json:"citation_count"`

	// CreatedAt is when the precedent was promoted.
	CreatedAt time.Time `json:"created_at"`
}

// DecisionContext describes the case being decided, used as the query
// side of precedent matching.
type DecisionContext struct {
	// Action is what the agent did or attempted.
	Action string

	// Actor identifies the agent involved.
	Actor string

	// Parameters are the action's salient parameters.
	Parameters map[string]string

	// Environment describes the execution environment.
	Environment map[string]string

	// Category is the governance domain of the case.
	Category constitution.Category

	// Severity is the assessed severity of the case.
	Severity constitution.Severity
}

// Empty reports whether the context carries no matchable text.
func (c DecisionContext) Empty() bool {
	return strings.TrimSpace(c.Action) == "" &&
		strings.TrimSpace(c.Actor) == "" &&
		len(c.Parameters) == 0 &&
		len(c.Environment) == 0
}

// Text flattens the context into a single query string for entity
// extraction and semantic comparison.
func (c DecisionContext) Text() string {
	var b strings.Builder
	b.WriteString(c.Action)
	if c.Actor != "" {
		b.WriteString(" by ")
		b.WriteString(c.Actor)
	}
	for k, v := range c.Parameters {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(v)
	}
	for k, v := range c.Environment {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(v)
	}
	return b.String()
}

// MatchFactors is the per-signal breakdown of a match score.
type MatchFactors struct {
	EntityOverlap     float64 `json:"entity_overlap"`
	IntentAlignment   float64 `json:"intent_alignment"`
	SemanticScore     float64 `json:"semantic_score"`
	CategoryMatch     float64 `json:"category_match"`
	SeverityMatch     float64 `json:"severity_match"`
	ConditionsOverlap float64 `json:"conditions_overlap"`
}

// PrecedentMatch is one ranked result of a similarity query. Matches are
// computed per query and never persisted.
type PrecedentMatch struct {
	// Precedent is the matched precedent.
	Precedent *Precedent

	// Score is the overall weighted similarity, in [0,1].
	Score float64

	// Factors is the per-signal breakdown behind Score.
	Factors MatchFactors

	// MatchingEntities lists entities shared between the context and
	// the precedent's key facts.
	MatchingEntities []string

	// IntentAlignment is how well the context's intent matches the
	// precedent's, in [0,1].
	IntentAlignment float64

	// SemanticSimilarity is the text-level similarity, in [0,1].
	SemanticSimilarity float64

	// Reasoning explains why this precedent matched.
	Reasoning string
}
