package precedent

import (
	"context"
	"sort"
	"strings"
)

// Entity is a typed entity extracted from case text.
type Entity struct {
	// Type classifies the entity ("agent", "resource", "action", "term").
	Type string

	// Value is the entity text.
	Value string

	// Confidence is the extractor's confidence, in [0,1].
	Confidence float64
}

// IntentResult is the outcome of classifying an action's intent.
type IntentResult struct {
	// Intent is the best classification.
	Intent string

	// Confidence is the classifier's confidence, in [0,1].
	Confidence float64

	// Alternatives lists lower-ranked candidate intents.
	Alternatives []string
}

// SemanticResult is the outcome of comparing two pieces of case text.
type SemanticResult struct {
	// Score is the similarity, in [0,1].
	Score float64

	// MatchingPhrases lists shared salient phrases.
	MatchingPhrases []string

	// Distance is 1 - Score.
	Distance float64
}

// Analyzer is the pluggable analysis capability behind precedent
// matching. One production implementation is backed by a vector index;
// the rule-based implementation is deterministic and serves as the
// fallback when the production path fails.
type Analyzer interface {
	// ExtractEntities extracts typed entities from case text.
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)

	// ClassifyIntent classifies the intent of an action description.
	ClassifyIntent(ctx context.Context, action string) (IntentResult, error)

	// SemanticScores compares the query text against every document and
	// returns a similarity per document id. Documents absent from the
	// result map score zero.
	SemanticScores(ctx context.Context, query string, docs map[string]string) (map[string]SemanticResult, error)
}

// intentVocabulary maps intent labels to indicative terms. Classification
// picks the label with the highest term overlap.
var intentVocabulary = map[string][]string{
	"resource_acquisition": {"allocate", "acquire", "consume", "exceed", "quota", "memory", "cpu", "disk"},
	"data_access":          {"read", "write", "access", "export", "leak", "transfer", "copy", "exfiltrate"},
	"coordination":         {"delegate", "coordinate", "broadcast", "spawn", "deadlock", "handoff", "assign"},
	"safety_violation":     {"bypass", "override", "disable", "unsafe", "harm", "circumvent", "tamper"},
	"quality_deviation":    {"incomplete", "incorrect", "malformed", "degrade", "stale", "skip"},
}

// RuleBasedAnalyzer is a deterministic Analyzer built on token overlap.
// It never fails, which makes it the terminal fallback in the matching
// pipeline.
type RuleBasedAnalyzer struct{}

// NewRuleBasedAnalyzer returns a deterministic analyzer.
func NewRuleBasedAnalyzer() *RuleBasedAnalyzer {
	return &RuleBasedAnalyzer{}
}

// ExtractEntities extracts entities by lexical shape. Tokens carrying a
// key=value form become typed entities; remaining long tokens become
// plain terms.
func (r *RuleBasedAnalyzer) ExtractEntities(_ context.Context, text string) ([]Entity, error) {
	var entities []Entity
	seen := make(map[string]struct{})

	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?()[]{}\"'")
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}

		switch {
		case strings.Contains(tok, "="):
			parts := strings.SplitN(tok, "=", 2)
			entities = append(entities, Entity{Type: parts[0], Value: parts[1], Confidence: 0.9})
		case strings.HasPrefix(tok, "agent-") || strings.HasPrefix(tok, "agent_"):
			entities = append(entities, Entity{Type: "agent", Value: tok, Confidence: 0.9})
		case len(tok) >= 4:
			entities = append(entities, Entity{Type: "term", Value: tok, Confidence: 0.5})
		}
	}

	return entities, nil
}

// ClassifyIntent classifies by term overlap against a fixed vocabulary.
func (r *RuleBasedAnalyzer) ClassifyIntent(_ context.Context, action string) (IntentResult, error) {
	tokens := tokenSet(action)

	type ranked struct {
		intent string
		hits   int
	}
	var scores []ranked
	for intent, terms := range intentVocabulary {
		hits := 0
		for _, term := range terms {
			if _, ok := tokens[term]; ok {
				hits++
			}
		}
		if hits > 0 {
			scores = append(scores, ranked{intent, hits})
		}
	}

	if len(scores) == 0 {
		return IntentResult{Intent: "unknown", Confidence: 0.2}, nil
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].hits != scores[j].hits {
			return scores[i].hits > scores[j].hits
		}
		return scores[i].intent < scores[j].intent
	})

	best := scores[0]
	confidence := float64(best.hits) / float64(best.hits+2)
	result := IntentResult{Intent: best.intent, Confidence: confidence}
	for _, alt := range scores[1:] {
		result.Alternatives = append(result.Alternatives, alt.intent)
	}
	return result, nil
}

// SemanticScores compares by token Jaccard similarity.
func (r *RuleBasedAnalyzer) SemanticScores(_ context.Context, query string, docs map[string]string) (map[string]SemanticResult, error) {
	queryTokens := tokenSet(query)
	out := make(map[string]SemanticResult, len(docs))

	for id, text := range docs {
		docTokens := tokenSet(text)
		score, shared := jaccard(queryTokens, docTokens)
		out[id] = SemanticResult{
			Score:           score,
			MatchingPhrases: shared,
			Distance:        1 - score,
		}
	}
	return out, nil
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,;:!?()[]{}\"'")
		if len(tok) < 3 {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) (float64, []string) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	var shared []string
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared = append(shared, tok)
		}
	}
	sort.Strings(shared)
	union := len(a) + len(b) - len(shared)
	return float64(len(shared)) / float64(union), shared
}
