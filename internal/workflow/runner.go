package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner orchestrates one workflow execution: it resolves the graph, walks
// the ready set, dispatches eligible steps to the Executor concurrently, and
// aggregates terminal results into a sealed Execution.
type Runner struct {
	executor *Executor
	logger   *zap.Logger
	steps    *Limiter
}

// NewRunner builds a runner. stepLimiter bounds step parallelism within one
// run; nil means bounded only by how many steps are simultaneously ready.
func NewRunner(executor *Executor, logger *zap.Logger, stepLimiter *Limiter) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{executor: executor, logger: logger, steps: stepLimiter}
}

// Run executes def to a sealed Execution. Definition and graph errors abort
// before any step runs and are returned as the sole result. Step failures
// are contained: siblings keep running, dependents of a failed step are
// never started and remain Pending in the record.
//
// Cancelling ctx stops new dispatch; steps already in flight finish or time
// out normally before the run seals.
func (r *Runner) Run(ctx context.Context, def Definition) (*Execution, error) {
	if err := ValidateDefinition(def); err != nil {
		return nil, err
	}
	plan, err := Resolve(def)
	if err != nil {
		return nil, err
	}

	exec := &Execution{
		ExecutionID:   uuid.NewString(),
		WorkflowID:    def.ID,
		OverallStatus: StatusRunning,
		StartedAt:     time.Now().UTC(),
		Steps:         make(map[string]*StepResult, plan.Len()),
	}
	for _, id := range plan.Order() {
		exec.Steps[id] = &StepResult{StepID: id, Status: StatusPending}
	}
	vars := NewVariables(def.Variables)

	r.logger.Info("workflow execution started",
		zap.String("execution_id", exec.ExecutionID),
		zap.String("workflow", def.Name),
		zap.Int("steps", plan.Len()))

	// In-flight steps drain gracefully on cancellation; only their own
	// per-attempt timeouts bound them.
	stepCtx := context.WithoutCancel(ctx)

	results := make(chan *StepResult)
	completed := make(map[string]bool, plan.Len())
	inFlight := 0
	cancelled := false

	apply := func(res *StepResult) {
		exec.Steps[res.StepID] = res
		if res.Status == StatusSucceeded || res.Status == StatusSkipped {
			// Skipped satisfies dependents: an intentionally skipped
			// branch must not block the rest of the graph.
			completed[res.StepID] = true
		}
		inFlight--
	}

	for {
		if !cancelled {
			for _, id := range plan.Ready(completed) {
				if exec.Steps[id].Status != StatusPending {
					continue
				}
				step, _ := plan.Step(id)
				exec.Steps[id].Status = StatusRunning
				inFlight++
				go func(step Step) {
					if err := r.steps.Acquire(stepCtx); err != nil {
						results <- failedResult(step.ID, err)
						return
					}
					defer r.steps.Release()
					results <- r.executor.ExecuteStep(stepCtx, step, vars)
				}(step)
			}
		}

		if inFlight == 0 {
			break
		}

		if cancelled {
			apply(<-results)
			continue
		}

		select {
		case res := <-results:
			apply(res)
		case <-ctx.Done():
			cancelled = true
			r.logger.Info("workflow cancelled, draining in-flight steps",
				zap.String("execution_id", exec.ExecutionID),
				zap.Int("in_flight", inFlight))
		}
	}

	Seal(exec, vars)
	r.logger.Info("workflow execution finished",
		zap.String("execution_id", exec.ExecutionID),
		zap.String("status", string(exec.OverallStatus)))
	return exec, nil
}

func failedResult(stepID string, err error) *StepResult {
	now := time.Now().UTC()
	return &StepResult{
		StepID:     stepID,
		Status:     StatusFailed,
		Error:      err.Error(),
		StartedAt:  &now,
		FinishedAt: &now,
	}
}
