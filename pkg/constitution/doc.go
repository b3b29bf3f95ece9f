// Package constitution defines the constitutional rule set that governs
// agent behavior: rule and violation types, a YAML rule file loader, a
// versioned thread-safe registry, and a file watcher for live reloads.
//
// Rules are immutable once published. A rule change is expressed as a new
// version of the same rule id; the registry only accepts strictly higher
// versions and the previous version is never mutated.
package constitution
