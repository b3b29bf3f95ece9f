package scoring

import (
	"context"
	"fmt"
	"strings"
)

// HeuristicOracle is a deterministic oracle built on lexical overlap. It
// serves as both the default standalone oracle and a fallback when an
// external judgment service is not configured.
type HeuristicOracle struct{}

// NewHeuristicOracle returns a deterministic lexical oracle.
func NewHeuristicOracle() *HeuristicOracle {
	return &HeuristicOracle{}
}

// Evaluate scores output by token overlap with the task and criterion.
func (h *HeuristicOracle) Evaluate(_ context.Context, task, output, criterion string) (Assessment, error) {
	if strings.TrimSpace(output) == "" {
		return Assessment{
			Score:      0,
			Confidence: 0.9,
			Reasoning:  "empty output",
		}, nil
	}

	reference := tokenize(task + " " + criterion)
	candidate := tokenize(output)
	if len(reference) == 0 {
		return Assessment{
			Score:      NeutralScore,
			Confidence: 0.3,
			Reasoning:  "no reference terms to score against",
		}, nil
	}

	matched := 0
	for tok := range reference {
		if _, ok := candidate[tok]; ok {
			matched++
		}
	}
	score := float64(matched) / float64(len(reference))

	return Assessment{
		Score:      score,
		Confidence: 0.6,
		Reasoning:  fmt.Sprintf("lexical overlap: %d of %d reference terms present", matched, len(reference)),
	}, nil
}

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.Trim(f, ".,;:!?()[]{}\"'")
		if len(f) < 3 {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}
