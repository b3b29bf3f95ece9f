package constitution

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleRuleFile = `
rules:
  - id: res-limit-001
    version: 1
    category: RESOURCE_USE
    severity: MODERATE
    condition: 'int(context.cpu_seconds) > 300'
    waivable: true
    required_evidence: [usage_report]
    effective_date: 2026-01-01T00:00:00Z
  - id: safety-001
    version: 2
    category: SAFETY
    severity: CRITICAL
    condition: 'action == "delete" && context.scope == "production"'
    waivable: false
    required_evidence: [action_log, approval_chain]
    effective_date: 2026-01-01T00:00:00Z
`

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeRuleFile(t, sampleRuleFile)

	rules, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].ID != "res-limit-001" || rules[0].Severity != SeverityModerate {
		t.Errorf("unexpected first rule: %+v", rules[0])
	}
	if rules[1].Waivable {
		t.Error("safety-001 should not be waivable")
	}
	if len(rules[1].RequiredEvidence) != 2 {
		t.Errorf("expected 2 required evidence kinds, got %d", len(rules[1].RequiredEvidence))
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", "rules: []\n"},
		{"bad yaml", "rules: [\n"},
		{"invalid rule", "rules:\n  - id: x\n    version: 0\n    category: SAFETY\n    severity: MINOR\n    condition: 'true'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRuleFile(t, tt.content)
			if _, err := LoadFile(path); err == nil {
				t.Error("expected load error")
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadIntoRegistry(t *testing.T) {
	path := writeRuleFile(t, sampleRuleFile)
	registry := NewRegistry()

	if err := LoadIntoRegistry(path, registry); err != nil {
		t.Fatalf("LoadIntoRegistry failed: %v", err)
	}
	if registry.Len() != 2 {
		t.Errorf("expected 2 rules in registry, got %d", registry.Len())
	}
}
