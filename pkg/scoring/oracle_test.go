package scoring

import (
	"context"
	"errors"
	"testing"
)

type failingOracle struct{}

func (failingOracle) Evaluate(context.Context, string, string, string) (Assessment, error) {
	return Assessment{}, errors.New("backend unavailable")
}

type fixedOracle struct {
	assessment Assessment
}

func (f fixedOracle) Evaluate(context.Context, string, string, string) (Assessment, error) {
	return f.assessment, nil
}

func TestSafeOracleDegradesOnFailure(t *testing.T) {
	safe := NewSafeOracle(failingOracle{}, nil)

	got, err := safe.Evaluate(context.Background(), "task", "output", "accuracy")
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if got.Score != NeutralScore {
		t.Errorf("degraded score = %v, want %v", got.Score, NeutralScore)
	}
	if got.Confidence >= 0.5 {
		t.Errorf("degraded confidence = %v, want < 0.5", got.Confidence)
	}
}

func TestSafeOracleNilInner(t *testing.T) {
	safe := NewSafeOracle(nil, nil)

	got, err := safe.Evaluate(context.Background(), "task", "output", "accuracy")
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if got.Score != NeutralScore {
		t.Errorf("score = %v, want %v", got.Score, NeutralScore)
	}
}

func TestSafeOracleClampsOutOfRange(t *testing.T) {
	safe := NewSafeOracle(fixedOracle{Assessment{Score: 1.7, Confidence: -0.2}}, nil)

	got, err := safe.Evaluate(context.Background(), "task", "output", "accuracy")
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if got.Score != 1.0 {
		t.Errorf("clamped score = %v, want 1.0", got.Score)
	}
	if got.Confidence != 0 {
		t.Errorf("clamped confidence = %v, want 0", got.Confidence)
	}
}

func TestHeuristicOracle(t *testing.T) {
	oracle := NewHeuristicOracle()

	tests := []struct {
		name      string
		task      string
		output    string
		criterion string
		wantZero  bool
		wantFull  bool
	}{
		{
			name:      "empty output scores zero",
			task:      "summarize the report",
			output:    "   ",
			criterion: "completeness",
			wantZero:  true,
		},
		{
			name:      "complete overlap scores high",
			task:      "resource quota",
			output:    "the resource quota was exceeded",
			criterion: "quota",
			wantFull:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oracle.Evaluate(context.Background(), tt.task, tt.output, tt.criterion)
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if tt.wantZero && got.Score != 0 {
				t.Errorf("score = %v, want 0", got.Score)
			}
			if tt.wantFull && got.Score != 1 {
				t.Errorf("score = %v, want 1", got.Score)
			}
		})
	}
}
