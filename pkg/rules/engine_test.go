package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/themis/pkg/constitution"
)

func testViolation() *constitution.Violation {
	return &constitution.Violation{
		ID:          "viol-001",
		RuleID:      "res-limit-001",
		Severity:    constitution.SeverityModerate,
		Description: "agent exceeded memory allocation during batch processing",
		Evidence:    []string{"metrics-snapshot-1122", "allocation-trace-0007"},
		DetectedAt:  time.Now(),
		Violator:    "agent-17",
		Context: map[string]any{
			"memory_mb": int64(4096),
			"limit_mb":  int64(2048),
		},
	}
}

func testRules() []constitution.Rule {
	return []constitution.Rule{
		{
			ID:               "res-limit-001",
			Version:          1,
			Category:         constitution.CategoryResourceUse,
			Severity:         constitution.SeverityModerate,
			Condition:        `context.memory_mb > context.limit_mb`,
			Waivable:         true,
			RequiredEvidence: []string{"metrics", "trace"},
		},
		{
			ID:        "safety-001",
			Version:   1,
			Category:  constitution.CategorySafety,
			Severity:  constitution.SeverityCritical,
			Condition: `severity == "CRITICAL"`,
			Waivable:  false,
		},
	}
}

func TestEvaluateViolation(t *testing.T) {
	engine, err := NewEngine(nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	results := engine.EvaluateViolation(context.Background(), testViolation(), testRules())
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	first := results[0]
	if first.RuleID != "res-limit-001" {
		t.Errorf("result order changed: first rule %s", first.RuleID)
	}
	if !first.Matched {
		t.Error("resource rule should match: memory exceeds limit in context")
	}
	if !first.EvidenceSatisfied {
		t.Error("evidence kinds metrics and trace are both present")
	}
	if first.Confidence < 0.9 {
		t.Errorf("matched rule with full evidence and severity agreement: confidence = %v", first.Confidence)
	}

	second := results[1]
	if second.Matched {
		t.Error("safety rule requires CRITICAL severity, violation is MODERATE")
	}
	if second.Err != nil {
		t.Errorf("safety rule evaluation errored: %v", second.Err)
	}
}

func TestMalformedConditionIsolated(t *testing.T) {
	engine, err := NewEngine(nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	candidates := []constitution.Rule{
		{
			ID:        "broken-001",
			Version:   1,
			Category:  constitution.CategoryQuality,
			Severity:  constitution.SeverityMinor,
			Condition: `this is not CEL ((`,
		},
		testRules()[0],
	}

	results := engine.EvaluateViolation(context.Background(), testViolation(), candidates)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	var evalErr *RuleEvaluationError
	if !errors.As(results[0].Err, &evalErr) {
		t.Fatalf("broken rule result err = %v, want RuleEvaluationError", results[0].Err)
	}
	if evalErr.RuleID != "broken-001" {
		t.Errorf("error rule id = %s, want broken-001", evalErr.RuleID)
	}

	if results[1].Err != nil {
		t.Errorf("healthy rule affected by broken neighbor: %v", results[1].Err)
	}
	if !results[1].Matched {
		t.Error("healthy rule should still match")
	}
}

func TestNonBooleanConditionRejected(t *testing.T) {
	engine, err := NewEngine(nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	candidates := []constitution.Rule{{
		ID:        "nonbool-001",
		Version:   1,
		Category:  constitution.CategoryQuality,
		Severity:  constitution.SeverityMinor,
		Condition: `evidence_count + 1`,
	}}

	results := engine.EvaluateViolation(context.Background(), testViolation(), candidates)
	if results[0].Err == nil {
		t.Fatal("non-boolean condition should produce an evaluation error")
	}
}

func TestEvidenceSatisfied(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		evidence []string
		want     bool
	}{
		{"no requirements", nil, nil, true},
		{"all kinds present", []string{"log", "trace"}, []string{"log-bundle-1", "exec-trace-2"}, true},
		{"missing kind", []string{"log", "trace"}, []string{"log-bundle-1"}, false},
		{"case insensitive", []string{"Log"}, []string{"LOG-bundle"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evidenceSatisfied(tt.required, tt.evidence); got != tt.want {
				t.Errorf("evidenceSatisfied() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgramCacheReuse(t *testing.T) {
	engine, err := NewEngine(nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	// Evaluate the same rules twice; the second pass hits the cache.
	for i := 0; i < 2; i++ {
		results := engine.EvaluateViolation(context.Background(), testViolation(), testRules())
		if results[0].Err != nil {
			t.Fatalf("pass %d: %v", i, results[0].Err)
		}
	}

	engine.mu.RLock()
	cached := len(engine.prgCache)
	engine.mu.RUnlock()
	if cached != 2 {
		t.Errorf("program cache has %d entries, want 2", cached)
	}
}
