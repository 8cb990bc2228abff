package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/appleton-labs/automaton/internal/backoff"
	"go.uber.org/zap"
)

// CommandRunner invokes one attempt of a step's external command. The
// returned string is captured stdout; a non-nil error means the attempt
// failed (non-zero exit, timeout, or invocation failure).
type CommandRunner interface {
	Run(ctx context.Context, command string, args []string, env map[string]string) (string, error)
}

// ExecRunner runs commands as OS processes. Runtime variables are injected
// into the child environment on top of the parent's.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, command string, args []string, env map[string]string) (string, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return stdout.String(), fmt.Errorf("command %q timed out: %w", command, context.DeadlineExceeded)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return stdout.String(), fmt.Errorf("command %q failed: %s", command, msg)
	}
	return stdout.String(), nil
}

// Executor drives exactly one step to a terminal StepResult: condition
// check, variable substitution, invocation with timeout and retry, outcome
// classification. It is the only component that invokes external commands
// and the only writer of runtime variables.
type Executor struct {
	runner         CommandRunner
	logger         *zap.Logger
	defaultTimeout time.Duration
	delay          backoff.Strategy
}

func NewExecutor(runner CommandRunner, logger *zap.Logger, defaultTimeout time.Duration, delay backoff.Strategy) *Executor {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTimeout <= 0 {
		defaultTimeout = time.Hour
	}
	if delay == nil {
		delay = backoff.NewExponential(time.Second, time.Minute)
	}
	return &Executor{runner: runner, logger: logger, defaultTimeout: defaultTimeout, delay: delay}
}

// ExecuteStep runs step to completion. The ctx bounds retries and backoff
// waits; each individual attempt is additionally bounded by the step's own
// timeout (or the engine default).
func (e *Executor) ExecuteStep(ctx context.Context, step Step, vars *Variables) *StepResult {
	started := time.Now().UTC()
	result := &StepResult{
		StepID:    step.ID,
		Status:    StatusRunning,
		StartedAt: &started,
	}

	snapshot := vars.Snapshot()

	if step.Condition != "" && !EvaluateCondition(step.Condition, snapshot) {
		e.logger.Info("step skipped by condition",
			zap.String("step_id", step.ID),
			zap.String("condition", step.Condition))
		return e.seal(result, StatusSkipped)
	}

	command := Substitute(step.Command, snapshot)
	args := SubstituteAll(step.Args, snapshot)

	timeout := step.Timeout.Std()
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	var lastErr error
	for attempt := 0; attempt <= step.RetryCount; attempt++ {
		if attempt > 0 {
			wait := e.delay.Delay(attempt)
			e.logger.Info("retrying step",
				zap.String("step_id", step.ID),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", wait))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				result.Attempts = attempt
				result.Error = lastErr.Error()
				return e.seal(result, StatusFailed)
			}
		}
		result.Attempts = attempt + 1

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		out, err := e.runner.Run(attemptCtx, command, args, snapshot)
		cancel()

		if err == nil {
			result.Output = out
			if step.Output != "" {
				vars.Set(step.Output, strings.TrimRight(out, "\r\n"))
			}
			return e.seal(result, StatusSucceeded)
		}
		lastErr = err
		result.Error = err.Error()
	}

	e.logger.Error("step failed",
		zap.String("step_id", step.ID),
		zap.Int("attempts", result.Attempts),
		zap.Error(lastErr))
	return e.seal(result, StatusFailed)
}

func (e *Executor) seal(result *StepResult, status Status) *StepResult {
	finished := time.Now().UTC()
	result.Status = status
	result.FinishedAt = &finished
	return result
}
