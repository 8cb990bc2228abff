package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps definitions as <dir>/<id>.json and sealed executions as
// <dir>/executions/<id>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("workflow dir is empty")
	}
	if err := os.MkdirAll(filepath.Join(dir, "executions"), 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) SaveDefinition(def Definition) error {
	return writeJSON(filepath.Join(s.dir, def.ID+".json"), def)
}

func (s *FileStore) GetDefinition(id string) (Definition, error) {
	var def Definition
	if err := readJSON(filepath.Join(s.dir, id+".json"), &def); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func (s *FileStore) ListDefinitions() ([]Definition, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []Definition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var def Definition
		if err := readJSON(filepath.Join(s.dir, entry.Name()), &def); err != nil {
			continue
		}
		if def.ID == "" || len(def.Steps) == 0 {
			continue
		}
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *FileStore) SaveExecution(exec *Execution) error {
	return writeJSON(filepath.Join(s.dir, "executions", exec.ExecutionID+".json"), exec)
}

func (s *FileStore) GetExecution(id string) (*Execution, error) {
	var exec Execution
	if err := readJSON(filepath.Join(s.dir, "executions", id+".json"), &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

func (s *FileStore) ListExecutions(workflowID string) ([]*Execution, error) {
	dir := filepath.Join(s.dir, "executions")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []*Execution
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var exec Execution
		if err := readJSON(filepath.Join(dir, entry.Name()), &exec); err != nil {
			continue
		}
		if workflowID == "" || exec.WorkflowID == workflowID {
			out = append(out, &exec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}
