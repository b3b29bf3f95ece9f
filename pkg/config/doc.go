// Package config provides configuration loading, validation, and defaults
// for the Themis arbitration engine.
//
// Configuration is loaded from a YAML file, with optional environment
// variable overrides following the THEMIS_SECTION_FIELD naming convention.
// Defaults are applied for unset fields and the final result is validated
// before use.
package config
