package workflow

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// Service ties the store and the runner together behind the operations the
// CLI and HTTP surfaces call.
type Service struct {
	store  Store
	runner *Runner
	logger *zap.Logger
}

func NewService(store Store, runner *Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, runner: runner, logger: logger}
}

func (s *Service) CreateDefinition(def Definition) (Definition, error) {
	applyDefaults(&def)
	if def.CreatedAt.IsZero() {
		def.CreatedAt = time.Now().UTC()
	}
	if err := ValidateDefinition(def); err != nil {
		return Definition{}, err
	}
	if _, err := Resolve(def); err != nil {
		return Definition{}, err
	}
	if err := s.store.SaveDefinition(def); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func (s *Service) GetDefinition(id string) (Definition, error) {
	return s.store.GetDefinition(id)
}

func (s *Service) ListDefinitions() ([]Definition, error) {
	return s.store.ListDefinitions()
}

// Execute runs a definition synchronously and persists the sealed record.
func (s *Service) Execute(ctx context.Context, def Definition) (*Execution, error) {
	exec, err := s.runner.Run(ctx, def)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveExecution(exec); err != nil {
		s.logger.Error("failed to persist execution record",
			zap.String("execution_id", exec.ExecutionID),
			zap.Error(err))
		return exec, fmt.Errorf("persisting execution %s: %w", exec.ExecutionID, err)
	}
	return exec, nil
}

// ExecuteByID runs a stored definition.
func (s *Service) ExecuteByID(ctx context.Context, workflowID string) (*Execution, error) {
	def, err := s.store.GetDefinition(workflowID)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, def)
}

// ExecuteFile loads a definition document from disk, registers it, and runs
// it.
func (s *Service) ExecuteFile(ctx context.Context, path string) (*Execution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow file: %w", err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, err
	}
	def, err = s.CreateDefinition(def)
	if err != nil {
		return nil, err
	}
	s.logger.Info("loaded workflow definition",
		zap.String("workflow_id", def.ID),
		zap.String("name", def.Name),
		zap.String("version", def.Version))
	return s.Execute(ctx, def)
}

func (s *Service) GetExecution(id string) (*Execution, error) {
	return s.store.GetExecution(id)
}

func (s *Service) ListExecutions(workflowID string) ([]*Execution, error) {
	return s.store.ListExecutions(workflowID)
}
