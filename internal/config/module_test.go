package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8100 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Workflow.MaxConcurrentWorkflows != 4 || cfg.Workflow.MaxParallelSteps != 8 {
		t.Errorf("workflow defaults = %+v", cfg.Workflow)
	}
	if cfg.System.TaskRetention != "24h" {
		t.Errorf("task retention default = %q", cfg.System.TaskRetention)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "server:\n  port: 9000\nworkflow:\n  max_parallel_steps: 2\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Workflow.MaxParallelSteps != 2 {
		t.Errorf("max_parallel_steps = %d", cfg.Workflow.MaxParallelSteps)
	}
	// Untouched sections keep defaults.
	if cfg.Upload.Dir != "./uploads" {
		t.Errorf("upload dir = %q", cfg.Upload.Dir)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("AUTOMATION_SERVER_PORT", "7777")
	t.Setenv("AUTOMATION_MAX_CONCURRENT_WORKFLOWS", "9")
	t.Setenv("AUTOMATION_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Workflow.MaxConcurrentWorkflows != 9 {
		t.Errorf("max_concurrent_workflows = %d", cfg.Workflow.MaxConcurrentWorkflows)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsNonPositivePermits(t *testing.T) {
	t.Setenv("AUTOMATION_MAX_CONCURRENT_WORKFLOWS", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for zero permit pool")
	}
}

func TestDurationHelper(t *testing.T) {
	cases := []struct {
		raw      string
		fallback time.Duration
		want     time.Duration
	}{
		{"30s", time.Hour, 30 * time.Second},
		{"", time.Hour, time.Hour},
		{"garbage", time.Minute, time.Minute},
		{"-5s", time.Minute, time.Minute},
	}
	for _, tc := range cases {
		if got := Duration(tc.raw, tc.fallback); got != tc.want {
			t.Errorf("Duration(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
