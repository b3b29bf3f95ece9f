package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "themis",
	Short: "Themis - arbitration orchestration engine for multi-agent governance",
	Long: `Themis is an open-source arbitration engine that turns constitutional
violation reports into audited, appealable verdicts.

It drives each violation through a guarded session state machine, providing:
  - CEL-based rule evaluation against violation context
  - Verdict generation with explicit reasoning chains
  - Temporary rule exemptions through waivers
  - Multi-level appeals with verdict supersession
  - Precedent matching and promotion for consistent decisions

For more information, visit: https://github.com/mercator-hq/themis`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
