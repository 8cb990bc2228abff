package workflow

import (
	"errors"
	"testing"
	"time"
)

func storeImplementations(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("filestore: %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestStoreDefinitionRoundTrip(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			def := Definition{
				ID:        "wf_test",
				Name:      "roundtrip",
				Steps:     []Step{{ID: "a", Command: "true", Timeout: Duration(time.Minute)}},
				Variables: map[string]string{"k": "v"},
				CreatedAt: time.Now().UTC().Truncate(time.Second),
			}
			if err := store.SaveDefinition(def); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := store.GetDefinition("wf_test")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Name != def.Name || len(got.Steps) != 1 || got.Steps[0].Timeout.Std() != time.Minute {
				t.Errorf("got %+v", got)
			}
			defs, err := store.ListDefinitions()
			if err != nil || len(defs) != 1 {
				t.Errorf("list: %v, %d items", err, len(defs))
			}
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.GetDefinition("nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetDefinition: %v", err)
			}
			if _, err := store.GetExecution("nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetExecution: %v", err)
			}
		})
	}
}

func TestStoreExecutionsFilteredByWorkflow(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now().UTC()
			for i, wf := range []string{"wf_a", "wf_a", "wf_b"} {
				exec := &Execution{
					ExecutionID:   string(rune('x' + i)),
					WorkflowID:    wf,
					OverallStatus: StatusSucceeded,
					StartedAt:     now,
					Steps:         map[string]*StepResult{},
				}
				if err := store.SaveExecution(exec); err != nil {
					t.Fatalf("save: %v", err)
				}
			}
			got, err := store.ListExecutions("wf_a")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != 2 {
				t.Errorf("wf_a executions = %d, want 2", len(got))
			}
			all, err := store.ListExecutions("")
			if err != nil {
				t.Fatalf("list all: %v", err)
			}
			if len(all) != 3 {
				t.Errorf("all executions = %d, want 3", len(all))
			}
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("filestore: %v", err)
	}
	def := Definition{ID: "wf_persist", Name: "persist", Steps: []Step{{ID: "a", Command: "true"}}}
	if err := fs.SaveDefinition(def); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.GetDefinition("wf_persist")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Name != "persist" {
		t.Errorf("got %+v", got)
	}
}
