package constitution

import (
	"fmt"
	"time"
)

// Severity classifies how serious a rule or violation is.
type Severity string

const (
	SeverityMinor    Severity = "MINOR"
	SeverityModerate Severity = "MODERATE"
	SeverityMajor    Severity = "MAJOR"
	SeverityCritical Severity = "CRITICAL"
)

// Valid reports whether s is a recognized severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// Rank returns the ordinal position of the severity, from 0 (MINOR)
// to 3 (CRITICAL). Unknown severities rank below MINOR.
func (s Severity) Rank() int {
	switch s {
	case SeverityMinor:
		return 0
	case SeverityModerate:
		return 1
	case SeverityMajor:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// Category classifies the domain a constitutional rule governs.
type Category string

const (
	CategorySafety       Category = "SAFETY"
	CategoryResourceUse  Category = "RESOURCE_USE"
	CategoryDataHandling Category = "DATA_HANDLING"
	CategoryCoordination Category = "COORDINATION"
	CategoryQuality      Category = "QUALITY"
)

// Valid reports whether c is a recognized category.
func (c Category) Valid() bool {
	switch c {
	case CategorySafety, CategoryResourceUse, CategoryDataHandling, CategoryCoordination, CategoryQuality:
		return true
	}
	return false
}

// Rule is a single constitutional rule. Rules are immutable once
// published: a change is expressed as a new version, never a mutation.
type Rule struct {
	// ID uniquely identifies the rule across all versions.
	ID string `yaml:"id"`

	// Version is a monotonically increasing revision number.
	Version int `yaml:"version"`

	// Category is the governance domain the rule belongs to.
	Category Category `yaml:"category"`

	// Severity is the seriousness of violating this rule.
	Severity Severity `yaml:"severity"`

	// Condition is a CEL boolean expression over the violation context.
	// The rule matches a violation when the expression evaluates true.
	Condition string `yaml:"condition"`

	// Waivable indicates whether exemptions may be granted for this rule.
	Waivable bool `yaml:"waivable"`

	// RequiredEvidence lists the evidence kinds a violation report must
	// carry for the rule to be considered fully evidenced. Order matters.
	RequiredEvidence []string `yaml:"required_evidence"`

	// EffectiveDate is when this version of the rule takes effect.
	EffectiveDate time.Time `yaml:"effective_date"`
}

// Validate checks the rule for structural problems.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule id cannot be empty")
	}
	if r.Version < 1 {
		return fmt.Errorf("rule %s: version must be at least 1", r.ID)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("rule %s: unknown category %q", r.ID, r.Category)
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("rule %s: unknown severity %q", r.ID, r.Severity)
	}
	if r.Condition == "" {
		return fmt.Errorf("rule %s: condition cannot be empty", r.ID)
	}
	return nil
}

// Violation is a detected breach of a constitutional rule by an agent.
// Violations are produced by an external detector and are read-only
// inputs to an arbitration session.
type Violation struct {
	// ID uniquely identifies the violation report.
	ID string

	// RuleID is the rule the detector believes was breached.
	RuleID string

	// Severity is the detector's assessment of seriousness.
	Severity Severity

	// Description is a human-readable account of what happened.
	Description string

	// Evidence holds opaque references to supporting material.
	Evidence []string

	// DetectedAt is when the detector observed the breach.
	DetectedAt time.Time

	// Violator identifies the agent that committed the breach.
	Violator string

	// Context is a key-value bag describing the circumstances; it is the
	// input domain for rule condition expressions.
	Context map[string]any
}

// Validate checks the violation for structural problems.
func (v *Violation) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("violation id cannot be empty")
	}
	if v.RuleID == "" {
		return fmt.Errorf("violation %s: rule id cannot be empty", v.ID)
	}
	if !v.Severity.Valid() {
		return fmt.Errorf("violation %s: unknown severity %q", v.ID, v.Severity)
	}
	return nil
}
