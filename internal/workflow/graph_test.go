package workflow

import (
	"errors"
	"testing"
)

func stepIDs(ids ...string) []Step {
	steps := make([]Step, 0, len(ids))
	for _, id := range ids {
		steps = append(steps, Step{ID: id, Command: "true"})
	}
	return steps
}

func indexOf(t *testing.T, order []string, id string) int {
	t.Helper()
	for i, v := range order {
		if v == id {
			return i
		}
	}
	t.Fatalf("step %q missing from order %v", id, order)
	return -1
}

func TestResolveOrderRespectsDependencies(t *testing.T) {
	def := Definition{
		Name: "diamond",
		Steps: []Step{
			{ID: "publish", Command: "true", DependsOn: []string{"build", "test"}},
			{ID: "build", Command: "true", DependsOn: []string{"fetch"}},
			{ID: "test", Command: "true", DependsOn: []string{"fetch"}},
			{ID: "fetch", Command: "true"},
		},
	}
	plan, err := Resolve(def)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	order := plan.Order()
	if len(order) != 4 {
		t.Fatalf("expected 4 steps in order, got %v", order)
	}
	fetch := indexOf(t, order, "fetch")
	build := indexOf(t, order, "build")
	test := indexOf(t, order, "test")
	publish := indexOf(t, order, "publish")
	if fetch > build || fetch > test {
		t.Errorf("fetch must precede build and test: %v", order)
	}
	if publish < build || publish < test {
		t.Errorf("publish must follow build and test: %v", order)
	}
}

func TestResolveUnknownDependency(t *testing.T) {
	def := Definition{
		Name: "bad",
		Steps: []Step{
			{ID: "a", Command: "true", DependsOn: []string{"missing"}},
		},
	}
	_, err := Resolve(def)
	if !errors.Is(err, ErrUnknownDependency) {
		t.Fatalf("expected ErrUnknownDependency, got %v", err)
	}
	var ge *GraphError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GraphError, got %T", err)
	}
	if ge.StepID != "a" || ge.Dependency != "missing" {
		t.Errorf("wrong witness: step=%q dep=%q", ge.StepID, ge.Dependency)
	}
}

func TestResolveCycle(t *testing.T) {
	def := Definition{
		Name: "cyclic",
		Steps: []Step{
			{ID: "a", Command: "true", DependsOn: []string{"c"}},
			{ID: "b", Command: "true", DependsOn: []string{"a"}},
			{ID: "c", Command: "true", DependsOn: []string{"b"}},
		},
	}
	_, err := Resolve(def)
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
	var ge *GraphError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GraphError, got %T", err)
	}
	if len(ge.Cycle) < 4 || ge.Cycle[0] != ge.Cycle[len(ge.Cycle)-1] {
		t.Errorf("cycle witness is not a closed path: %v", ge.Cycle)
	}
}

func TestResolveSelfCycle(t *testing.T) {
	def := Definition{
		Name:  "self",
		Steps: []Step{{ID: "a", Command: "true", DependsOn: []string{"a"}}},
	}
	_, err := Resolve(def)
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestReadySetProgression(t *testing.T) {
	def := Definition{
		Name: "chain",
		Steps: []Step{
			{ID: "a", Command: "true"},
			{ID: "b", Command: "true", DependsOn: []string{"a"}},
			{ID: "c", Command: "true", DependsOn: []string{"a"}},
			{ID: "d", Command: "true", DependsOn: []string{"b", "c"}},
		},
	}
	plan, err := Resolve(def)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	completed := map[string]bool{}
	ready := plan.Ready(completed)
	if len(ready) != 1 || ready[0] != "a" {
		t.Fatalf("expected only a ready at start, got %v", ready)
	}

	completed["a"] = true
	ready = plan.Ready(completed)
	if len(ready) != 2 {
		t.Fatalf("expected b and c ready after a, got %v", ready)
	}

	completed["b"] = true
	completed["c"] = true
	ready = plan.Ready(completed)
	if len(ready) != 1 || ready[0] != "d" {
		t.Fatalf("expected only d ready, got %v", ready)
	}
}

func TestResolveIndependentStepsAllReady(t *testing.T) {
	def := Definition{Name: "flat", Steps: stepIDs("x", "y", "z")}
	plan, err := Resolve(def)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := plan.Ready(map[string]bool{}); len(got) != 3 {
		t.Fatalf("expected all steps ready, got %v", got)
	}
}
