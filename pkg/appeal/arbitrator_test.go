package appeal

import (
	"strings"
	"testing"

	"mercator-hq/themis/pkg/verdict"
)

func originalVerdict() *verdict.Verdict {
	return &verdict.Verdict{
		ID:        "verd-001",
		SessionID: "sess-001",
		Outcome:   verdict.OutcomeRejected,
		Reasoning: []verdict.ReasoningStep{
			{Step: 1, Description: "rule res-limit-001 matched with complete evidence", Confidence: 0.9},
			{Step: 2, Description: "outcome REJECTED", Confidence: 0.9},
		},
		RulesApplied: []string{"res-limit-001"},
		Evidence:     []string{"metrics-snapshot-1122"},
		Confidence:   0.9,
		IssuedBy:     "arbiter-1",
	}
}

const strongGrounds = "the detector misattributed the allocation spike to agent-17 when the batch scheduler caused it"

func strongEvidence() []string {
	return []string{"scheduler-log-90", "allocation-audit-91", "ownership-trace-92", "capacity-report-93", "incident-review-94"}
}

func TestSubmitAppealValidation(t *testing.T) {
	arb := NewArbitrator(ArbitratorConfig{MinEvidenceForAppeal: 2}, nil)

	// Exactly 19 characters.
	_, err := arb.SubmitAppeal("sess-001", originalVerdict(), "agent-17", "nineteen chars here", strongEvidence())
	if err == nil {
		t.Fatal("19-character grounds accepted")
	}
	if !strings.Contains(err.Error(), "20 characters") {
		t.Errorf("error %q does not mention the 20 characters minimum", err)
	}

	_, err = arb.SubmitAppeal("sess-001", originalVerdict(), "agent-17", strongGrounds, []string{"only-one"})
	if err == nil {
		t.Fatal("insufficient evidence accepted")
	}

	appeal, err := arb.SubmitAppeal("sess-001", originalVerdict(), "agent-17", strongGrounds, strongEvidence())
	if err != nil {
		t.Fatalf("valid appeal rejected: %v", err)
	}
	if appeal.Level != 1 {
		t.Errorf("level = %d, want 1", appeal.Level)
	}
	if appeal.Status != StatusSubmitted {
		t.Errorf("status = %s, want SUBMITTED", appeal.Status)
	}
}

func TestReviewAppealOverturn(t *testing.T) {
	arb := NewArbitrator(ArbitratorConfig{}, nil)

	appeal, err := arb.SubmitAppeal("sess-001", originalVerdict(), "agent-17", strongGrounds, strongEvidence())
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}

	decision, err := arb.ReviewAppeal(appeal.ID, []string{"rev-1", "rev-2", "rev-3"})
	if err != nil {
		t.Fatalf("ReviewAppeal: %v", err)
	}
	if decision.Decision != StatusOverturned {
		t.Fatalf("decision = %s, want OVERTURNED (strong grounds, full evidence, three reviewers)", decision.Decision)
	}
	if decision.NewVerdict == nil {
		t.Fatal("overturn produced no replacement verdict")
	}
	if decision.NewVerdict.Outcome != verdict.OutcomeApproved {
		t.Errorf("replacement outcome = %s, want APPROVED", decision.NewVerdict.Outcome)
	}
	if decision.NewVerdict.SessionID != "sess-001" {
		t.Errorf("replacement session id = %s", decision.NewVerdict.SessionID)
	}

	// Strict superset: every original step appears, plus new ones.
	original := originalVerdict()
	if len(decision.NewVerdict.Reasoning) <= len(original.Reasoning) {
		t.Fatalf("replacement reasoning has %d steps, original %d; want strict superset",
			len(decision.NewVerdict.Reasoning), len(original.Reasoning))
	}
	for i, step := range original.Reasoning {
		if decision.NewVerdict.Reasoning[i].Description != step.Description {
			t.Errorf("original step %d missing from replacement", i+1)
		}
	}
}

func TestReviewAppealUpheldWhenWeak(t *testing.T) {
	arb := NewArbitrator(ArbitratorConfig{}, nil)

	appeal, err := arb.SubmitAppeal("sess-001", originalVerdict(), "agent-17",
		"twenty characters ok", []string{"single-item"})
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}

	decision, err := arb.ReviewAppeal(appeal.ID, []string{"rev-1"})
	if err != nil {
		t.Fatalf("ReviewAppeal: %v", err)
	}
	if decision.Decision != StatusUpheld {
		t.Errorf("decision = %s, want UPHELD", decision.Decision)
	}
	if decision.NewVerdict != nil {
		t.Error("upheld review produced a replacement verdict")
	}
}

func TestRequireUnanimousRaisesBar(t *testing.T) {
	// A borderline appeal overturns with the default bar but not with
	// the unanimity bar.
	borderlineGrounds := strings.Repeat("x", 120) // grounds signal 0.6
	borderlineEvidence := []string{"e1", "e2", "e3"}
	reviewers := []string{"rev-1", "rev-2"}

	standard := NewArbitrator(ArbitratorConfig{}, nil)
	appeal, err := standard.SubmitAppeal("sess-001", originalVerdict(), "agent-17", borderlineGrounds, borderlineEvidence)
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}
	decision, err := standard.ReviewAppeal(appeal.ID, reviewers)
	if err != nil {
		t.Fatalf("ReviewAppeal: %v", err)
	}
	if decision.Decision != StatusOverturned {
		t.Fatalf("standard bar: decision = %s, want OVERTURNED", decision.Decision)
	}

	unanimous := NewArbitrator(ArbitratorConfig{RequireUnanimous: true}, nil)
	appeal, err = unanimous.SubmitAppeal("sess-001", originalVerdict(), "agent-17", borderlineGrounds, borderlineEvidence)
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}
	decision, err = unanimous.ReviewAppeal(appeal.ID, reviewers)
	if err != nil {
		t.Fatalf("ReviewAppeal: %v", err)
	}
	if decision.Decision != StatusUpheld {
		t.Errorf("unanimous bar: decision = %s, want UPHELD", decision.Decision)
	}
}

func TestReviewRequiresSubmittedState(t *testing.T) {
	arb := NewArbitrator(ArbitratorConfig{}, nil)

	appeal, err := arb.SubmitAppeal("sess-001", originalVerdict(), "agent-17", strongGrounds, strongEvidence())
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}
	if _, err := arb.ReviewAppeal(appeal.ID, []string{"rev-1", "rev-2", "rev-3"}); err != nil {
		t.Fatalf("first ReviewAppeal: %v", err)
	}

	_, err = arb.ReviewAppeal(appeal.ID, []string{"rev-1"})
	if err == nil {
		t.Fatal("second review of a decided appeal succeeded")
	}
	if !strings.Contains(err.Error(), "not in submitted state") {
		t.Errorf("error = %q, want mention of submitted state", err)
	}

	if _, err := arb.ReviewAppeal("no-such-id", []string{"rev-1"}); err == nil {
		t.Error("review of unknown appeal succeeded")
	}
}

func TestEscalationBoundedByMaxLevels(t *testing.T) {
	arb := NewArbitrator(ArbitratorConfig{MaxAppealLevels: 2}, nil)

	appeal, err := arb.SubmitAppeal("sess-001", originalVerdict(), "agent-17",
		"twenty characters ok", []string{"single-item"})
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}
	if _, err := arb.ReviewAppeal(appeal.ID, []string{"rev-1"}); err != nil {
		t.Fatalf("ReviewAppeal: %v", err)
	}

	if err := arb.EscalateAppeal(appeal.ID, "reviewer conflict of interest"); err != nil {
		t.Fatalf("first escalation: %v", err)
	}

	got := arb.GetAppeal(appeal.ID)
	if got.Level != 2 {
		t.Errorf("level after escalation = %d, want 2", got.Level)
	}
	if got.Status != StatusSubmitted {
		t.Errorf("status after escalation = %s, want SUBMITTED", got.Status)
	}
	if got.Metadata.EscalationReason != "reviewer conflict of interest" {
		t.Errorf("escalation reason = %q", got.Metadata.EscalationReason)
	}

	if _, err := arb.ReviewAppeal(appeal.ID, []string{"rev-2"}); err != nil {
		t.Fatalf("second ReviewAppeal: %v", err)
	}
	err = arb.EscalateAppeal(appeal.ID, "try again")
	if err == nil {
		t.Fatal("escalation beyond maximum level succeeded")
	}
	if !strings.Contains(err.Error(), "already at maximum level") {
		t.Errorf("error = %q, want mention of maximum level", err)
	}
}

func TestEscalationRequiresReview(t *testing.T) {
	arb := NewArbitrator(ArbitratorConfig{MaxAppealLevels: 3}, nil)

	appeal, err := arb.SubmitAppeal("sess-001", originalVerdict(), "agent-17",
		"twenty characters ok", []string{"single-item"})
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}

	err = arb.EscalateAppeal(appeal.ID, "skip straight to the top")
	if err == nil {
		t.Fatal("escalation of a submitted appeal succeeded")
	}
	if !strings.Contains(err.Error(), "has not been reviewed") {
		t.Errorf("error = %q, want mention of missing review", err)
	}

	got := arb.GetAppeal(appeal.ID)
	if got.Level != 1 {
		t.Errorf("level = %d, want 1", got.Level)
	}
	if got.Status != StatusSubmitted {
		t.Errorf("status = %s, want SUBMITTED", got.Status)
	}

	// After a review the same escalation goes through, and the next
	// one is again blocked until the new level is reviewed.
	if _, err := arb.ReviewAppeal(appeal.ID, []string{"rev-1"}); err != nil {
		t.Fatalf("ReviewAppeal: %v", err)
	}
	if err := arb.EscalateAppeal(appeal.ID, "reviewer conflict of interest"); err != nil {
		t.Fatalf("escalation after review: %v", err)
	}
	if err := arb.EscalateAppeal(appeal.ID, "again"); err == nil {
		t.Error("escalation without a level-2 review succeeded")
	}
}

func TestFinalizeAppeal(t *testing.T) {
	arb := NewArbitrator(ArbitratorConfig{}, nil)

	appeal, err := arb.SubmitAppeal("sess-001", originalVerdict(), "agent-17",
		"twenty characters ok", []string{"single-item"})
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}

	if err := arb.FinalizeAppeal(appeal.ID); err == nil {
		t.Error("finalizing a submitted appeal succeeded")
	}
	if err := arb.FinalizeAppeal("no-such-id"); err == nil {
		t.Error("finalizing an unknown appeal succeeded")
	}

	if _, err := arb.ReviewAppeal(appeal.ID, []string{"rev-1"}); err != nil {
		t.Fatalf("ReviewAppeal: %v", err)
	}
	if err := arb.FinalizeAppeal(appeal.ID); err != nil {
		t.Fatalf("FinalizeAppeal: %v", err)
	}

	got := arb.GetAppeal(appeal.ID)
	if got.Status != StatusFinalized {
		t.Errorf("status = %s, want FINALIZED", got.Status)
	}
	if got.Metadata.FinalizedAt.IsZero() {
		t.Error("finalizedAt not recorded")
	}

	// Finalizing again is a no-op.
	if err := arb.FinalizeAppeal(appeal.ID); err != nil {
		t.Errorf("re-finalizing errored: %v", err)
	}

	if err := arb.EscalateAppeal(appeal.ID, "too late"); err == nil {
		t.Error("escalating a finalized appeal succeeded")
	}
}

func TestGetStatistics(t *testing.T) {
	arb := NewArbitrator(ArbitratorConfig{}, nil)

	overturnable, err := arb.SubmitAppeal("sess-001", originalVerdict(), "agent-17", strongGrounds, strongEvidence())
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}
	weak, err := arb.SubmitAppeal("sess-002", originalVerdict(), "agent-18",
		"twenty characters ok", []string{"single-item"})
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}

	if _, err := arb.ReviewAppeal(overturnable.ID, []string{"rev-1", "rev-2", "rev-3"}); err != nil {
		t.Fatalf("ReviewAppeal: %v", err)
	}
	if _, err := arb.ReviewAppeal(weak.ID, []string{"rev-1"}); err != nil {
		t.Fatalf("ReviewAppeal: %v", err)
	}

	stats := arb.GetStatistics()
	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	if stats.OverturnRate != 0.5 {
		t.Errorf("overturn rate = %v, want 0.5", stats.OverturnRate)
	}
	if stats.OverturnRate < 0 || stats.OverturnRate > 1 {
		t.Errorf("overturn rate out of range: %v", stats.OverturnRate)
	}
	if stats.AverageLevel != 1 {
		t.Errorf("average level = %v, want 1", stats.AverageLevel)
	}
	if stats.ByStatus[StatusOverturned] != 1 || stats.ByStatus[StatusUpheld] != 1 {
		t.Errorf("by status = %v", stats.ByStatus)
	}
	if stats.ByLevel[1] != 2 {
		t.Errorf("by level = %v", stats.ByLevel)
	}
}
