package constitution

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk shape of a constitution file.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads and validates a constitution rule file.
func LoadFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %q: %w", path, err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %q: %w", path, err)
	}

	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rule file %q contains no rules", path)
	}

	for i := range file.Rules {
		if err := file.Rules[i].Validate(); err != nil {
			return nil, fmt.Errorf("rule file %q: %w", path, err)
		}
	}

	return file.Rules, nil
}

// LoadIntoRegistry loads a rule file and atomically replaces the
// registry content with it.
func LoadIntoRegistry(path string, registry *Registry) error {
	rules, err := LoadFile(path)
	if err != nil {
		return err
	}
	return registry.Replace(rules)
}
