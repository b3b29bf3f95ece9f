// Themis is an arbitration orchestration engine for multi-agent
// governance.
//
// It arbitrates constitutional violations reported by external
// detectors, providing:
//   - CEL-based rule evaluation against violation context
//   - Verdict generation with explicit reasoning chains
//   - Temporary rule exemptions through waivers
//   - Multi-level appeals with verdict supersession
//   - Precedent matching and promotion for consistent decisions
//
// Usage:
//
//	# Start the engine with default configuration
//	themis run
//
//	# Start with a custom configuration file
//	themis run --config /path/to/config.yaml
//
//	# Validate configuration and constitution files
//	themis validate
//
//	# Show version information
//	themis version
//
// For complete documentation, see: https://github.com/mercator-hq/themis
package main

func main() {
	Execute()
}
