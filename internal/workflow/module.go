package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/appleton-labs/automaton/internal/backoff"
	"github.com/appleton-labs/automaton/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewStore picks the definition/execution store from config: postgres when a
// DSN is set, the workflow directory on disk otherwise.
func NewStore(cfg config.Config) (Store, error) {
	if cfg.Workflow.PostgresDSN != "" {
		return NewPGStore(cfg.Workflow.PostgresDSN)
	}
	return NewFileStore(cfg.Workflow.Dir)
}

// Build assembles the execution stack from config. It is shared by the fx
// module and the one-shot CLI commands.
func Build(cfg config.Config, store Store, logger *zap.Logger) (*Service, error) {
	steps, err := NewLimiter(cfg.Workflow.MaxParallelSteps)
	if err != nil {
		return nil, fmt.Errorf("step permit pool: %w", err)
	}
	// Retry delays double deterministically up to the cap; a retry never
	// waits less than the one before it.
	delay := backoff.NewExponential(
		config.Duration(cfg.Workflow.BackoffBase, time.Second),
		config.Duration(cfg.Workflow.BackoffMax, time.Minute),
	)
	executor := NewExecutor(ExecRunner{}, logger, config.Duration(cfg.Workflow.DefaultTimeout, time.Hour), delay)
	runner := NewRunner(executor, logger, steps)
	return NewService(store, runner, logger), nil
}

func Module() fx.Option {
	return fx.Options(
		fx.Provide(func(cfg config.Config, lc fx.Lifecycle) (Store, error) {
			store, err := NewStore(cfg)
			if err != nil {
				return nil, err
			}
			if pg, ok := store.(*PGStore); ok {
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error { return pg.Close() },
				})
			}
			return store, nil
		}),
		fx.Provide(Build),
	)
}
