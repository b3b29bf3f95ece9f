package precedent

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/themis/pkg/constitution"
)

func samplePrecedents() []*Precedent {
	return []*Precedent{
		{
			ID:    "prec-001",
			Title: "memory quota exceeded during batch processing",
			KeyFacts: []string{
				"agent-17 allocated memory beyond the configured quota",
				"allocation spike during batch processing",
			},
			Applicability: Applicability{
				Category:   constitution.CategoryResourceUse,
				Severity:   constitution.SeverityModerate,
				Conditions: []string{"memory allocation", "batch processing"},
			},
			Verdict:          VerdictSnapshot{VerdictID: "verd-001", Outcome: "REJECTED", Confidence: 0.9},
			RulesInvolved:    []string{"res-limit-001"},
			ReasoningSummary: "repeated memory quota violations warrant rejection of the waiver",
			CreatedAt:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:    "prec-002",
			Title: "unsafe tool override bypassing sandbox",
			KeyFacts: []string{
				"agent disabled the sandbox guard to call an external tool",
			},
			Applicability: Applicability{
				Category:   constitution.CategorySafety,
				Severity:   constitution.SeverityCritical,
				Conditions: []string{"sandbox bypass"},
			},
			Verdict:          VerdictSnapshot{VerdictID: "verd-002", Outcome: "REJECTED", Confidence: 0.95},
			RulesInvolved:    []string{"safety-001"},
			ReasoningSummary: "bypassing safety guards is never acceptable",
			CreatedAt:        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			// No applicability data; must be silently excluded.
			ID:               "prec-003",
			Title:            "orphaned record",
			ReasoningSummary: "imported from a legacy system without scoping data",
			CreatedAt:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func resourceContext() DecisionContext {
	return DecisionContext{
		Action:   "allocate memory beyond quota during batch processing",
		Actor:    "agent-17",
		Category: constitution.CategoryResourceUse,
		Severity: constitution.SeverityModerate,
		Parameters: map[string]string{
			"memory_mb": "4096",
		},
	}
}

func TestFindSimilarPrecedentsEmptyInputs(t *testing.T) {
	m := NewMatcher(nil, MatcherConfig{}, nil)

	got, err := m.FindSimilarPrecedents(context.Background(), resourceContext(), nil)
	if err != nil {
		t.Fatalf("empty precedent list errored: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty precedent list returned %d matches", len(got))
	}

	got, err = m.FindSimilarPrecedents(context.Background(), DecisionContext{}, samplePrecedents())
	if err != nil {
		t.Fatalf("empty context errored: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty context returned %d matches", len(got))
	}
}

func TestFindSimilarPrecedentsExcludesMissingApplicability(t *testing.T) {
	m := NewMatcher(nil, MatcherConfig{MinSimilarityThreshold: 0.01}, nil)

	got, err := m.FindSimilarPrecedents(context.Background(), resourceContext(), samplePrecedents())
	if err != nil {
		t.Fatalf("FindSimilarPrecedents: %v", err)
	}
	for _, match := range got {
		if match.Precedent.ID == "prec-003" {
			t.Error("precedent without applicability data was returned")
		}
	}
}

func TestFindSimilarPrecedentsRanking(t *testing.T) {
	m := NewMatcher(nil, MatcherConfig{MinSimilarityThreshold: 0.01}, nil)

	got, err := m.FindSimilarPrecedents(context.Background(), resourceContext(), samplePrecedents())
	if err != nil {
		t.Fatalf("FindSimilarPrecedents: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one match for the resource context")
	}
	if got[0].Precedent.ID != "prec-001" {
		t.Errorf("best match = %s, want prec-001", got[0].Precedent.ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("matches not sorted: score[%d]=%v > score[%d]=%v", i, got[i].Score, i-1, got[i-1].Score)
		}
	}
	for _, match := range got {
		if match.Score < 0 || match.Score > 1 {
			t.Errorf("score out of range: %v", match.Score)
		}
	}
}

func TestFindSimilarPrecedentsThresholdMonotonic(t *testing.T) {
	loose := NewMatcher(nil, MatcherConfig{MinSimilarityThreshold: 0.01}, nil)
	strict := NewMatcher(nil, MatcherConfig{MinSimilarityThreshold: 0.9}, nil)

	looseMatches, err := loose.FindSimilarPrecedents(context.Background(), resourceContext(), samplePrecedents())
	if err != nil {
		t.Fatalf("loose matcher: %v", err)
	}
	strictMatches, err := strict.FindSimilarPrecedents(context.Background(), resourceContext(), samplePrecedents())
	if err != nil {
		t.Fatalf("strict matcher: %v", err)
	}

	if len(strictMatches) > len(looseMatches) {
		t.Errorf("strict threshold returned more matches (%d) than loose (%d)", len(strictMatches), len(looseMatches))
	}
	looseIDs := make(map[string]struct{})
	for _, match := range looseMatches {
		looseIDs[match.Precedent.ID] = struct{}{}
	}
	for _, match := range strictMatches {
		if _, ok := looseIDs[match.Precedent.ID]; !ok {
			t.Errorf("strict match %s absent from loose results", match.Precedent.ID)
		}
	}
}

func TestFindSimilarPrecedentsMaxResults(t *testing.T) {
	m := NewMatcher(nil, MatcherConfig{MinSimilarityThreshold: 0.01, MaxResults: 1}, nil)

	got, err := m.FindSimilarPrecedents(context.Background(), resourceContext(), samplePrecedents())
	if err != nil {
		t.Fatalf("FindSimilarPrecedents: %v", err)
	}
	if len(got) > 1 {
		t.Errorf("got %d matches, want at most 1", len(got))
	}
}

type brokenAnalyzer struct{}

func (brokenAnalyzer) ExtractEntities(context.Context, string) ([]Entity, error) {
	return nil, errors.New("model endpoint unreachable")
}

func (brokenAnalyzer) ClassifyIntent(context.Context, string) (IntentResult, error) {
	return IntentResult{}, errors.New("model endpoint unreachable")
}

func (brokenAnalyzer) SemanticScores(context.Context, string, map[string]string) (map[string]SemanticResult, error) {
	return nil, errors.New("model endpoint unreachable")
}

func TestFindSimilarPrecedentsFallback(t *testing.T) {
	m := NewMatcher(brokenAnalyzer{}, MatcherConfig{MinSimilarityThreshold: 0.01, EnableFallback: true}, nil)

	got, err := m.FindSimilarPrecedents(context.Background(), resourceContext(), samplePrecedents())
	if err != nil {
		t.Fatalf("fallback path errored: %v", err)
	}
	if len(got) == 0 {
		t.Error("fallback path returned no matches")
	}
}

func TestFindSimilarPrecedentsFallbackDisabled(t *testing.T) {
	m := NewMatcher(brokenAnalyzer{}, MatcherConfig{MinSimilarityThreshold: 0.01, EnableFallback: false}, nil)

	_, err := m.FindSimilarPrecedents(context.Background(), resourceContext(), samplePrecedents())
	if err == nil {
		t.Fatal("expected error when fallback is disabled and analyzer fails")
	}
}

func TestVectorAnalyzerSemanticScores(t *testing.T) {
	analyzer := NewVectorAnalyzer(nil)

	docs := map[string]string{
		"close": "agent exceeded the memory quota during batch processing",
		"far":   "reviewer approved the documentation style update",
	}
	scores, err := analyzer.SemanticScores(context.Background(), "memory quota exceeded in batch processing", docs)
	if err != nil {
		t.Fatalf("SemanticScores: %v", err)
	}
	if scores["close"].Score <= scores["far"].Score {
		t.Errorf("related doc scored %v, unrelated %v; want related higher",
			scores["close"].Score, scores["far"].Score)
	}
}

func TestRuleBasedIntentClassification(t *testing.T) {
	analyzer := NewRuleBasedAnalyzer()

	tests := []struct {
		action string
		want   string
	}{
		{"allocate memory beyond the quota", "resource_acquisition"},
		{"export customer data to external storage", "data_access"},
		{"bypass the sandbox and disable guards", "safety_violation"},
		{"completely unrelated text", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			got, err := analyzer.ClassifyIntent(context.Background(), tt.action)
			if err != nil {
				t.Fatalf("ClassifyIntent: %v", err)
			}
			if got.Intent != tt.want {
				t.Errorf("intent = %s, want %s", got.Intent, tt.want)
			}
		})
	}
}
