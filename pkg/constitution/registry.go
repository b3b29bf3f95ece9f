package constitution

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry is a thread-safe in-memory store of constitutional rules.
// It keeps the highest registered version of each rule id and never
// mutates a published version in place. Callers always receive copies.
type Registry struct {
	mu       sync.RWMutex
	rules    map[string]Rule
	version  string
	loadTime time.Time
}

// NewRegistry creates a new empty rule registry.
func NewRegistry() *Registry {
	return &Registry{
		rules:    make(map[string]Rule),
		loadTime: time.Now(),
	}
}

// Register adds a rule to the registry. A rule id already present may
// only be replaced by a strictly higher version.
func (r *Registry) Register(rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.rules[rule.ID]; ok && rule.Version <= existing.Version {
		return fmt.Errorf("rule %s: version %d does not supersede published version %d",
			rule.ID, rule.Version, existing.Version)
	}

	r.rules[rule.ID] = rule
	r.updateVersion()
	return nil
}

// Replace atomically swaps the entire rule set. It is used by the
// loader on reload so partially applied rule files are never visible.
func (r *Registry) Replace(rules []Rule) error {
	byID := make(map[string]Rule, len(rules))
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return err
		}
		if existing, ok := byID[rules[i].ID]; ok && rules[i].Version <= existing.Version {
			continue
		}
		byID[rules[i].ID] = rules[i]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = byID
	r.loadTime = time.Now()
	r.updateVersion()
	return nil
}

// Get returns the current version of a rule by id.
func (r *Registry) Get(id string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	return rule, ok
}

// Snapshot returns a copy of all registered rules, sorted by id.
func (r *Registry) Snapshot() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Version returns an opaque identifier for the current rule set.
// It changes whenever the registry content changes.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// updateVersion recomputes the content hash. Caller must hold the lock.
func (r *Registry) updateVersion() {
	ids := make([]string, 0, len(r.rules))
	for id := range r.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		rule := r.rules[id]
		fmt.Fprintf(h, "%s:%d:%s\n", rule.ID, rule.Version, rule.Condition)
	}
	r.version = fmt.Sprintf("%x", h.Sum(nil))[:16]
}
