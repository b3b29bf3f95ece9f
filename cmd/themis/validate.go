package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/themis/pkg/cli"
	"mercator-hq/themis/pkg/config"
	"mercator-hq/themis/pkg/constitution"
)

var validateFlags struct {
	rulesFile string
	format    string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and constitution files",
	Long: `Validate the configuration file and the constitutional rule file.

The validate command checks that the configuration parses, applies its
defaults, and passes validation, and that every rule in the constitution
file is structurally sound (known category and severity, non-empty
condition, monotonically increasing versions).

Examples:
  # Validate the default config and its constitution file
  themis validate

  # Validate a specific config
  themis validate --config /etc/themis/config.yaml

  # Validate a rule file directly
  themis validate --rules constitution.yaml

  # Machine-readable report
  themis validate --format json`,
	RunE: validateFiles,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.rulesFile, "rules", "", "constitution file to validate (overrides config)")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

// validationReport is the printable result of a validate run.
type validationReport struct {
	ConfigPath  string        `json:"config_path"`
	ConfigValid bool          `json:"config_valid"`
	RulesPath   string        `json:"rules_path,omitempty"`
	RuleCount   int           `json:"rule_count"`
	Rules       []ruleSummary `json:"rules,omitempty"`
	Problems    []string      `json:"problems,omitempty"`
}

type ruleSummary struct {
	ID       string `json:"id"`
	Version  int    `json:"version"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Waivable bool   `json:"waivable"`
}

func validateFiles(cmd *cobra.Command, args []string) error {
	report := validationReport{ConfigPath: cfgFile}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		report.Problems = append(report.Problems, fmt.Sprintf("config: %v", err))
	} else {
		report.ConfigValid = true
	}

	rulesPath := validateFlags.rulesFile
	if rulesPath == "" && cfg != nil {
		rulesPath = cfg.Constitution.Path
	}
	if rulesPath != "" {
		report.RulesPath = rulesPath
		rules, err := constitution.LoadFile(rulesPath)
		if err != nil {
			report.Problems = append(report.Problems, fmt.Sprintf("constitution: %v", err))
		} else {
			report.RuleCount = len(rules)
			for _, r := range rules {
				report.Rules = append(report.Rules, ruleSummary{
					ID:       r.ID,
					Version:  r.Version,
					Category: string(r.Category),
					Severity: string(r.Severity),
					Waivable: r.Waivable,
				})
			}
		}
	}

	if validateFlags.format == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		if err := formatter.FormatTo(os.Stdout, report); err != nil {
			return cli.NewCommandError("validate", err)
		}
	} else {
		printReport(report)
	}

	if len(report.Problems) > 0 {
		return cli.NewCommandError("validate", fmt.Errorf("%d problem(s) found", len(report.Problems)))
	}
	return nil
}

func printReport(report validationReport) {
	if report.ConfigValid {
		fmt.Printf("✓ Configuration valid: %s\n", report.ConfigPath)
	}
	if report.RulesPath != "" && report.RuleCount > 0 {
		fmt.Printf("✓ Constitution valid: %s (%d rules)\n", report.RulesPath, report.RuleCount)
		for _, r := range report.Rules {
			waivable := "non-waivable"
			if r.Waivable {
				waivable = "waivable"
			}
			fmt.Printf("  - %s v%d [%s/%s] %s\n", r.ID, r.Version, r.Category, r.Severity, waivable)
		}
	}
	for _, p := range report.Problems {
		fmt.Printf("✗ %s\n", p)
	}
}
