package workflow

import (
	"os"
	"sync"
)

// Variables is the runtime variable store for one execution. It is seeded
// from the definition and mutated only by step completions that declare an
// output name; each step writes at most its own key, so writes never
// conflict across steps.
type Variables struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewVariables(seed map[string]string) *Variables {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &Variables{values: values}
}

func (v *Variables) Get(name string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.values[name]
	return val, ok
}

func (v *Variables) Set(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[name] = value
}

// Snapshot returns a copy of the current values. Steps substitute against a
// snapshot so a run-in-progress never observes a half-applied write.
func (v *Variables) Snapshot() map[string]string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]string, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// Substitute expands $name and ${name} references in template from the
// snapshot. Unresolved references expand to the empty string; substitution
// itself never fails. Callers that need strictness validate up front.
func Substitute(template string, snapshot map[string]string) string {
	return os.Expand(template, func(name string) string {
		return snapshot[name]
	})
}

// SubstituteAll applies Substitute to every element of args.
func SubstituteAll(args []string, snapshot map[string]string) []string {
	if len(args) == 0 {
		return nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = Substitute(a, snapshot)
	}
	return out
}
