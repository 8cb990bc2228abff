package logging

import (
	"github.com/appleton-labs/automaton/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func Module() fx.Option {
	return fx.Provide(New)
}

// New builds the process logger. Production JSON encoding, level taken from
// config, with an optional forwarding core when a collector URL is set.
func New(cfg config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Logging.Level); err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}

	if cfg.Logging.ForwardURL != "" {
		logger = attachForwarder(logger, cfg.Logging.ForwardURL, cfg.Logging.ForwardAPIKey)
	}
	return logger, nil
}
