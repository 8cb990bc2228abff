package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Upload   UploadConfig   `yaml:"upload"`
	System   SystemConfig   `yaml:"system"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type WorkflowConfig struct {
	Dir                    string `yaml:"dir"`
	MaxConcurrentWorkflows int    `yaml:"max_concurrent_workflows"`
	MaxParallelSteps       int    `yaml:"max_parallel_steps"`
	DefaultTimeout         string `yaml:"default_timeout"`
	BackoffBase            string `yaml:"backoff_base"`
	BackoffMax             string `yaml:"backoff_max"`
	PostgresDSN            string `yaml:"postgres_dsn"`
}

type UploadConfig struct {
	Dir                string   `yaml:"dir"`
	MaxFileSize        int64    `yaml:"max_file_size"`
	AllowedExtensions  []string `yaml:"allowed_extensions"`
	CompressionEnabled bool     `yaml:"compression_enabled"`
	BackupEnabled      bool     `yaml:"backup_enabled"`
	BackupDir          string   `yaml:"backup_dir"`
	ArchiveAfter       string   `yaml:"archive_after"`
}

type SystemConfig struct {
	TaskRetention string `yaml:"task_retention"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	ForwardURL    string `yaml:"forward_url"`
	ForwardAPIKey string `yaml:"forward_api_key"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8100,
		},
		Workflow: WorkflowConfig{
			Dir:                    "./workflows",
			MaxConcurrentWorkflows: 4,
			MaxParallelSteps:       8,
			DefaultTimeout:         "1h",
			BackoffBase:            "1s",
			BackoffMax:             "1m",
		},
		Upload: UploadConfig{
			Dir:                "./uploads",
			MaxFileSize:        100 * 1024 * 1024,
			AllowedExtensions:  []string{"txt", "pdf", "doc", "docx", "zip", "tar", "gz", "json", "yaml", "yml"},
			CompressionEnabled: true,
			BackupEnabled:      true,
			BackupDir:          "./backups",
			ArchiveAfter:       "720h",
		},
		System: SystemConfig{
			TaskRetention: "24h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("AUTOMATION_SERVER_HOST")); v != "" {
		cfg.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("AUTOMATION_SERVER_PORT")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("AUTOMATION_WORKFLOW_DIR")); v != "" {
		cfg.Workflow.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("AUTOMATION_MAX_CONCURRENT_WORKFLOWS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Workflow.MaxConcurrentWorkflows = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("AUTOMATION_POSTGRES_DSN")); v != "" {
		cfg.Workflow.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("AUTOMATION_UPLOAD_DIR")); v != "" {
		cfg.Upload.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("AUTOMATION_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("AUTOMATION_LOG_FORWARD_URL")); v != "" {
		cfg.Logging.ForwardURL = v
	}

	return cfg, cfg.validate()
}

// validate rejects configurations the engine cannot start under. A zero or
// negative permit pool would deadlock every submission, so it is a startup
// error rather than a per-run error.
func (c Config) validate() error {
	if c.Workflow.MaxConcurrentWorkflows <= 0 {
		return fmt.Errorf("max_concurrent_workflows must be positive, got %d", c.Workflow.MaxConcurrentWorkflows)
	}
	if c.Workflow.MaxParallelSteps <= 0 {
		return fmt.Errorf("max_parallel_steps must be positive, got %d", c.Workflow.MaxParallelSteps)
	}
	return nil
}

// Duration parses a duration config field, falling back when the value is
// empty or malformed. Duration fields are strings ("30s", "1h") on the yaml
// surface.
func Duration(raw string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func Module(path string) fx.Option {
	return fx.Provide(func() (Config, error) {
		return Load(path)
	})
}
