package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrCycleDetected     = errors.New("dependency cycle detected")
)

// GraphError reports why a definition's dependency graph could not be
// resolved, naming the offending step(s).
type GraphError struct {
	StepID     string
	Dependency string
	Cycle      []string
	reason     error
}

func (e *GraphError) Error() string {
	if errors.Is(e.reason, ErrUnknownDependency) {
		return fmt.Sprintf("step %q: unknown dependency %q", e.StepID, e.Dependency)
	}
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

func (e *GraphError) Unwrap() error { return e.reason }

// Plan is a resolved execution plan: a validated dependency graph with a
// deterministic topological order. A Plan is read-only after Resolve.
type Plan struct {
	order []string
	steps map[string]Step
	deps  map[string][]string
}

// Resolve validates the definition's dependency relation and linearizes it.
// Every depends_on id must name an existing step and the relation must be
// acyclic; a step depending on itself is a cycle of length one. On failure
// no partial plan is returned.
func Resolve(def Definition) (*Plan, error) {
	steps := make(map[string]Step, len(def.Steps))
	for _, s := range def.Steps {
		steps[s.ID] = s
	}

	deps := make(map[string][]string, len(def.Steps))
	for _, s := range def.Steps {
		for _, dep := range s.DependsOn {
			if _, ok := steps[dep]; !ok {
				return nil, &GraphError{StepID: s.ID, Dependency: dep, reason: ErrUnknownDependency}
			}
		}
		deps[s.ID] = append([]string(nil), s.DependsOn...)
	}

	// Depth-first traversal over declaration order. A node re-encountered
	// while still in progress is a cycle; the visiting stack yields the
	// witness path.
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(def.Steps))
	order := make([]string, 0, len(def.Steps))
	var stack []string

	var visit func(id string) *GraphError
	visit = func(id string) *GraphError {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return &GraphError{StepID: id, Cycle: cycleWitness(stack, id), reason: ErrCycleDetected}
		}
		state[id] = visiting
		stack = append(stack, id)
		for _, dep := range deps[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		order = append(order, id)
		return nil
	}

	for _, s := range def.Steps {
		if err := visit(s.ID); err != nil {
			return nil, err
		}
	}

	return &Plan{order: order, steps: steps, deps: deps}, nil
}

// cycleWitness extracts the closed path ending at id from the visiting stack.
func cycleWitness(stack []string, id string) []string {
	start := 0
	for i, s := range stack {
		if s == id {
			start = i
			break
		}
	}
	witness := append([]string(nil), stack[start:]...)
	return append(witness, id)
}

// Order returns step ids in a dependency-respecting order.
func (p *Plan) Order() []string {
	return append([]string(nil), p.order...)
}

// Step returns the definition of a step in the plan.
func (p *Plan) Step(id string) (Step, bool) {
	s, ok := p.steps[id]
	return s, ok
}

// Deps returns the direct dependency ids of a step.
func (p *Plan) Deps(id string) []string {
	return append([]string(nil), p.deps[id]...)
}

// Ready returns, in plan order, the ids whose dependencies are all in the
// completed set. Pure: the caller filters out steps it has already started.
func (p *Plan) Ready(completed map[string]bool) []string {
	var ready []string
	for _, id := range p.order {
		if completed[id] {
			continue
		}
		ok := true
		for _, dep := range p.deps[id] {
			if !completed[dep] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, id)
		}
	}
	return ready
}

func (p *Plan) Len() int { return len(p.order) }
