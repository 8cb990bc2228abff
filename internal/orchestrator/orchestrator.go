// Package orchestrator coordinates the subsystems behind a single submission
// surface: it admits work under the concurrent-workflow permit pool, tracks
// every submission in the task registry, and sweeps finished tasks out after
// the retention window.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/appleton-labs/automaton/internal/config"
	"github.com/appleton-labs/automaton/internal/upload"
	"github.com/appleton-labs/automaton/internal/workflow"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type TaskType string

const (
	TaskUpload   TaskType = "UPLOAD"
	TaskWorkflow TaskType = "WORKFLOW"
	TaskSystem   TaskType = "SYSTEM"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskRunning   TaskStatus = "RUNNING"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskFailed    TaskStatus = "FAILED"
	TaskCancelled TaskStatus = "CANCELLED"
)

func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

type TaskInfo struct {
	ID         string     `json:"id"`
	Type       TaskType   `json:"type"`
	Status     TaskStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

var ErrTaskNotFound = errors.New("task not found")

type Orchestrator struct {
	workflows *workflow.Service
	uploads   *upload.Manager
	logger    *zap.Logger
	permits   *workflow.Limiter
	retention time.Duration

	mu     sync.RWMutex
	tasks  map[string]*TaskInfo
	cancel map[string]context.CancelFunc
}

func New(cfg config.Config, workflows *workflow.Service, uploads *upload.Manager, logger *zap.Logger) (*Orchestrator, error) {
	permits, err := workflow.NewLimiter(cfg.Workflow.MaxConcurrentWorkflows)
	if err != nil {
		return nil, fmt.Errorf("workflow permit pool: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		workflows: workflows,
		uploads:   uploads,
		logger:    logger,
		permits:   permits,
		retention: config.Duration(cfg.System.TaskRetention, 24*time.Hour),
		tasks:     map[string]*TaskInfo{},
		cancel:    map[string]context.CancelFunc{},
	}, nil
}

// ExecuteWorkflow runs a definition under a workflow permit. The call blocks
// until a permit is free or ctx is cancelled.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, def workflow.Definition) (*workflow.Execution, error) {
	return o.runWorkflowTask(ctx, func(ctx context.Context) (*workflow.Execution, error) {
		return o.workflows.Execute(ctx, def)
	})
}

// ExecuteWorkflowID runs a stored definition by id under a workflow permit.
func (o *Orchestrator) ExecuteWorkflowID(ctx context.Context, workflowID string) (*workflow.Execution, error) {
	return o.runWorkflowTask(ctx, func(ctx context.Context) (*workflow.Execution, error) {
		return o.workflows.ExecuteByID(ctx, workflowID)
	})
}

func (o *Orchestrator) runWorkflowTask(ctx context.Context, run func(context.Context) (*workflow.Execution, error)) (*workflow.Execution, error) {
	task := o.register(TaskWorkflow)

	if err := o.permits.Acquire(ctx); err != nil {
		o.finish(task.ID, TaskCancelled, err)
		return nil, err
	}
	defer o.permits.Release()

	runCtx := o.start(ctx, task.ID)
	defer o.release(task.ID)

	exec, err := run(runCtx)
	switch {
	case err != nil:
		o.finish(task.ID, TaskFailed, err)
	case errors.Is(runCtx.Err(), context.Canceled):
		o.finish(task.ID, TaskCancelled, runCtx.Err())
	default:
		o.finish(task.ID, TaskCompleted, nil)
	}
	return exec, err
}

// ProcessUpload runs the upload pipeline as a tracked task. Uploads share the
// workflow permit pool so a burst of uploads cannot starve the engine.
func (o *Orchestrator) ProcessUpload(ctx context.Context, path string) (*upload.Info, error) {
	task := o.register(TaskUpload)

	if err := o.permits.Acquire(ctx); err != nil {
		o.finish(task.ID, TaskCancelled, err)
		return nil, err
	}
	defer o.permits.Release()

	runCtx := o.start(ctx, task.ID)
	defer o.release(task.ID)

	info, err := o.uploads.Process(runCtx, path)
	if err != nil {
		o.finish(task.ID, TaskFailed, err)
		return info, err
	}
	o.finish(task.ID, TaskCompleted, nil)
	return info, nil
}

func (o *Orchestrator) register(typ TaskType) *TaskInfo {
	task := &TaskInfo{
		ID:        uuid.NewString(),
		Type:      typ,
		Status:    TaskPending,
		CreatedAt: time.Now().UTC(),
	}
	o.mu.Lock()
	o.tasks[task.ID] = task
	o.mu.Unlock()
	return task
}

func (o *Orchestrator) start(ctx context.Context, id string) context.Context {
	runCtx, cancel := context.WithCancel(ctx)
	now := time.Now().UTC()
	o.mu.Lock()
	if task, ok := o.tasks[id]; ok {
		task.Status = TaskRunning
		task.StartedAt = &now
	}
	o.cancel[id] = cancel
	o.mu.Unlock()
	return runCtx
}

func (o *Orchestrator) release(id string) {
	o.mu.Lock()
	if cancel, ok := o.cancel[id]; ok {
		cancel()
		delete(o.cancel, id)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) finish(id string, status TaskStatus, err error) {
	now := time.Now().UTC()
	o.mu.Lock()
	defer o.mu.Unlock()
	task, ok := o.tasks[id]
	if !ok {
		return
	}
	task.Status = status
	task.FinishedAt = &now
	if err != nil {
		task.Error = err.Error()
	}
}

// Task returns a copy of one task's state.
func (o *Orchestrator) Task(id string) (TaskInfo, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	task, ok := o.tasks[id]
	if !ok {
		return TaskInfo{}, ErrTaskNotFound
	}
	return *task, nil
}

// Tasks returns copies of all tracked tasks, oldest first.
func (o *Orchestrator) Tasks() []TaskInfo {
	o.mu.RLock()
	out := make([]TaskInfo, 0, len(o.tasks))
	for _, task := range o.tasks {
		out = append(out, *task)
	}
	o.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// CancelTask requests cancellation of a running task. Terminal tasks are left
// untouched.
func (o *Orchestrator) CancelTask(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	task, ok := o.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if task.Status.IsTerminal() {
		return fmt.Errorf("task %s already %s", id, task.Status)
	}
	if cancel, ok := o.cancel[id]; ok {
		cancel()
	}
	return nil
}

// CleanupTasks drops terminal tasks older than the retention window and
// returns how many were removed.
func (o *Orchestrator) CleanupTasks() int {
	cutoff := time.Now().UTC().Add(-o.retention)
	o.mu.Lock()
	defer o.mu.Unlock()
	removed := 0
	for id, task := range o.tasks {
		if !task.Status.IsTerminal() || task.FinishedAt == nil {
			continue
		}
		if task.FinishedAt.Before(cutoff) {
			delete(o.tasks, id)
			removed++
		}
	}
	return removed
}

// sweep runs the retention cleanup until ctx is cancelled.
func (o *Orchestrator) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := o.CleanupTasks(); removed > 0 {
				o.logger.Info("task registry swept", zap.Int("removed", removed))
			}
		}
	}
}

func Module() fx.Option {
	return fx.Options(
		fx.Provide(func(cfg config.Config, logger *zap.Logger) *upload.Manager {
			return upload.NewManager(cfg.Upload, logger)
		}),
		fx.Provide(New),
		fx.Invoke(func(lc fx.Lifecycle, o *Orchestrator) {
			sweepCtx, stop := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go o.sweep(sweepCtx, time.Hour)
					return nil
				},
				OnStop: func(context.Context) error {
					stop()
					return nil
				},
			})
		}),
	)
}
