// Package rules evaluates constitutional violations against candidate
// rules. Conditions are CEL boolean expressions over the violation's
// attributes and context bag. Evaluation is a pure function of its
// inputs; a malformed condition fails that rule's result only.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"mercator-hq/themis/pkg/constitution"
	"mercator-hq/themis/pkg/scoring"
)

// Evaluation is the per-rule result of evaluating a violation.
type Evaluation struct {
	// RuleID identifies the rule this result belongs to.
	RuleID string

	// Matched reports whether the rule's condition held for the violation.
	Matched bool

	// EvidenceSatisfied reports whether the violation carries the
	// evidence kinds the rule requires.
	EvidenceSatisfied bool

	// Confidence is the engine's confidence in this result, in [0,1].
	Confidence float64

	// Err is set when the rule's condition could not be evaluated.
	// Matched and EvidenceSatisfied are meaningless when Err is non-nil.
	Err error
}

// Engine compiles and evaluates rule conditions. Compiled programs are
// cached per condition text; the cache is safe for concurrent use.
type Engine struct {
	env      *cel.Env
	prgCache map[string]cel.Program
	mu       sync.RWMutex

	// oracle, when set, refines confidence for matched rules. Oracle
	// failures never fail an evaluation.
	oracle *scoring.SafeOracle

	logger *slog.Logger
}

// NewEngine creates a rule engine. The oracle is optional; pass nil to
// use the engine's built-in confidence estimation only.
func NewEngine(oracle *scoring.SafeOracle, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	env, err := cel.NewEnv(
		cel.Variable("severity", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("violator", cel.StringType),
		cel.Variable("description", cel.StringType),
		cel.Variable("evidence_count", cel.IntType),
		cel.Variable("context", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		prgCache: make(map[string]cel.Program),
		oracle:   oracle,
		logger:   logger.With("component", "rules"),
	}, nil
}

// EvaluateViolation evaluates the violation against every candidate rule
// and returns one result per rule, in input order. A rule whose condition
// fails to compile or evaluate yields a result carrying a
// RuleEvaluationError; the remaining rules are still evaluated.
func (e *Engine) EvaluateViolation(ctx context.Context, violation *constitution.Violation, candidates []constitution.Rule) []Evaluation {
	results := make([]Evaluation, 0, len(candidates))

	for i := range candidates {
		rule := &candidates[i]
		results = append(results, e.evaluateOne(ctx, violation, rule))
	}

	return results
}

func (e *Engine) evaluateOne(ctx context.Context, violation *constitution.Violation, rule *constitution.Rule) Evaluation {
	result := Evaluation{RuleID: rule.ID}

	matched, err := e.evaluateCondition(rule.Condition, conditionInput(violation, rule))
	if err != nil {
		e.logger.Warn("rule condition failed to evaluate",
			"rule_id", rule.ID,
			"error", err,
		)
		result.Err = &RuleEvaluationError{RuleID: rule.ID, Cause: err}
		return result
	}

	result.Matched = matched
	result.EvidenceSatisfied = evidenceSatisfied(rule.RequiredEvidence, violation.Evidence)
	result.Confidence = e.estimateConfidence(ctx, violation, rule, result)

	return result
}

// conditionInput builds the CEL activation for a violation under a rule.
func conditionInput(violation *constitution.Violation, rule *constitution.Rule) map[string]any {
	evalCtx := violation.Context
	if evalCtx == nil {
		evalCtx = map[string]any{}
	}
	return map[string]any{
		"severity":       string(violation.Severity),
		"category":       string(rule.Category),
		"violator":       violation.Violator,
		"description":    violation.Description,
		"evidence_count": int64(len(violation.Evidence)),
		"context":        evalCtx,
	}
}

func (e *Engine) evaluateCondition(expr string, input map[string]any) (bool, error) {
	e.mu.RLock()
	prg, hit := e.prgCache[expr]
	e.mu.RUnlock()

	if !hit {
		e.mu.Lock()
		// Double check
		if prg, hit = e.prgCache[expr]; !hit {
			ast, issues := e.env.Compile(expr)
			if issues != nil && issues.Err() != nil {
				e.mu.Unlock()
				return false, fmt.Errorf("compile: %w", issues.Err())
			}
			p, err := e.env.Program(ast,
				cel.InterruptCheckFrequency(100),
				cel.CostLimit(10000),
			)
			if err != nil {
				e.mu.Unlock()
				return false, fmt.Errorf("program: %w", err)
			}
			e.prgCache[expr] = p
			prg = p
		}
		e.mu.Unlock()
	}

	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("eval: %w", err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition result is not a boolean")
	}
	return val, nil
}

// evidenceSatisfied reports whether every required evidence kind is
// represented among the violation's evidence references. Matching is
// case-insensitive substring matching on the reference text.
func evidenceSatisfied(required []string, evidence []string) bool {
	for _, kind := range required {
		found := false
		for _, ref := range evidence {
			if strings.Contains(strings.ToLower(ref), strings.ToLower(kind)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// estimateConfidence derives a confidence for a successfully evaluated
// rule result. The base score reflects condition match and evidence
// completeness; when an oracle is configured it contributes a blended
// refinement for matched rules.
func (e *Engine) estimateConfidence(ctx context.Context, violation *constitution.Violation, rule *constitution.Rule, result Evaluation) float64 {
	confidence := 0.5
	if result.Matched {
		confidence = 0.7
		if result.EvidenceSatisfied {
			confidence += 0.2
		}
		if violation.Severity == rule.Severity {
			confidence += 0.1
		}
	} else if result.EvidenceSatisfied {
		// A clean non-match with complete evidence is a strong signal too.
		confidence = 0.8
	}

	if e.oracle != nil && result.Matched {
		assessment, _ := e.oracle.Evaluate(ctx,
			fmt.Sprintf("assess whether rule %s applies", rule.ID),
			violation.Description,
			rule.Condition,
		)
		// Weight the oracle by its own confidence.
		confidence = confidence*(1-assessment.Confidence*0.5) + assessment.Score*(assessment.Confidence*0.5)
	}

	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
