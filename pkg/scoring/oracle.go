// Package scoring defines the contract for the external scoring oracle
// used for confidence and quality estimation, and a wrapper that degrades
// oracle failures to a safe neutral score instead of propagating them.
package scoring

import (
	"context"
	"log/slog"
)

// Assessment is the result of a single oracle evaluation.
type Assessment struct {
	// Score is the quality score in [0,1].
	Score float64

	// Confidence is the oracle's confidence in its own score, in [0,1].
	Confidence float64

	// Reasoning is a human-readable account of the assessment.
	Reasoning string
}

// Oracle scores an output against a criterion. Implementations are
// typically backed by an external model-judgment subsystem.
type Oracle interface {
	// Evaluate scores output for the given task and criterion.
	Evaluate(ctx context.Context, task, output, criterion string) (Assessment, error)
}

// NeutralScore is the safe default returned when an oracle fails.
const NeutralScore = 0.5

// degradedConfidence is the confidence attached to a degraded assessment.
const degradedConfidence = 0.25

// SafeOracle wraps an Oracle so that failures degrade to a neutral score
// with reduced confidence rather than propagating an error.
type SafeOracle struct {
	inner  Oracle
	logger *slog.Logger
}

// NewSafeOracle wraps the given oracle. A nil inner oracle is allowed;
// every evaluation then degrades.
func NewSafeOracle(inner Oracle, logger *slog.Logger) *SafeOracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &SafeOracle{
		inner:  inner,
		logger: logger.With("component", "scoring"),
	}
}

// Evaluate scores output via the wrapped oracle, substituting the neutral
// default on any failure. The returned error is always nil.
func (s *SafeOracle) Evaluate(ctx context.Context, task, output, criterion string) (Assessment, error) {
	if s.inner == nil {
		return degraded("no oracle configured"), nil
	}

	assessment, err := s.inner.Evaluate(ctx, task, output, criterion)
	if err != nil {
		s.logger.Warn("scoring oracle failed, using neutral default",
			"criterion", criterion,
			"error", err,
		)
		return degraded("oracle unavailable"), nil
	}

	// Clamp out-of-range scores rather than trusting them.
	assessment.Score = clamp01(assessment.Score)
	assessment.Confidence = clamp01(assessment.Confidence)
	return assessment, nil
}

func degraded(reason string) Assessment {
	return Assessment{
		Score:      NeutralScore,
		Confidence: degradedConfidence,
		Reasoning:  reason,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
