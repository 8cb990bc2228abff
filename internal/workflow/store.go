package workflow

import (
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("not found")

// Store persists workflow definitions and sealed execution records. The
// engine only produces records; where they live is the store's concern.
type Store interface {
	SaveDefinition(def Definition) error
	GetDefinition(id string) (Definition, error)
	ListDefinitions() ([]Definition, error)
	SaveExecution(exec *Execution) error
	GetExecution(id string) (*Execution, error)
	ListExecutions(workflowID string) ([]*Execution, error)
}

type MemoryStore struct {
	mu         sync.RWMutex
	defs       map[string]Definition
	executions map[string]*Execution
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		defs:       map[string]Definition{},
		executions: map[string]*Execution{},
	}
}

func (s *MemoryStore) SaveDefinition(def Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs[def.ID] = def
	return nil
}

func (s *MemoryStore) GetDefinition(id string) (Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.defs[id]
	if !ok {
		return Definition{}, ErrNotFound
	}
	return def, nil
}

func (s *MemoryStore) ListDefinitions() ([]Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Definition, 0, len(s.defs))
	for _, def := range s.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SaveExecution(exec *Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[exec.ExecutionID] = exec
	return nil
}

func (s *MemoryStore) GetExecution(id string) (*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exec, ok := s.executions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return exec, nil
}

func (s *MemoryStore) ListExecutions(workflowID string) ([]*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Execution
	for _, exec := range s.executions {
		if workflowID == "" || exec.WorkflowID == workflowID {
			out = append(out, exec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}
