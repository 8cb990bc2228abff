package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Definition is a declaratively defined workflow. It is immutable once
// loaded for a given execution; step order is declaration order, not
// execution order.
type Definition struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description"`
	Version     string            `json:"version,omitempty" yaml:"version"`
	Steps       []Step            `json:"steps" yaml:"steps"`
	Variables   map[string]string `json:"variables,omitempty" yaml:"variables"`
	Metadata    Metadata          `json:"metadata,omitempty" yaml:"metadata"`
	CreatedAt   time.Time         `json:"created_at,omitempty" yaml:"created_at"`
}

type Step struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name,omitempty" yaml:"name"`
	Type       StepType `json:"step_type,omitempty" yaml:"step_type"`
	Command    string   `json:"command" yaml:"command"`
	Args       []string `json:"args,omitempty" yaml:"args"`
	Timeout    Duration `json:"timeout,omitempty" yaml:"timeout"`
	RetryCount int      `json:"retry_count,omitempty" yaml:"retry_count"`
	DependsOn  []string `json:"depends_on,omitempty" yaml:"depends_on"`
	Condition  string   `json:"condition,omitempty" yaml:"condition"`
	Output     string   `json:"output,omitempty" yaml:"output"`
}

type Metadata struct {
	Author   string   `json:"author,omitempty" yaml:"author"`
	Tags     []string `json:"tags,omitempty" yaml:"tags"`
	Priority string   `json:"priority,omitempty" yaml:"priority"`
}

type StepType string

const (
	StepTypeCommand   StepType = "command"
	StepTypeScript    StepType = "script"
	StepTypeUpload    StepType = "upload"
	StepTypeDownload  StepType = "download"
	StepTypeTransform StepType = "transform"
	StepTypeValidate  StepType = "validate"
	StepTypeNotify    StepType = "notify"
)

type Status string

const (
	StatusPending         Status = "PENDING"
	StatusRunning         Status = "RUNNING"
	StatusSucceeded       Status = "SUCCEEDED"
	StatusFailed          Status = "FAILED"
	StatusSkipped         Status = "SKIPPED"
	StatusPartiallyFailed Status = "PARTIALLY_FAILED"
)

// IsTerminal reports whether a step status will never change again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// StepResult is created when a step becomes eligible and is immutable once
// terminal.
type StepResult struct {
	StepID     string     `json:"step_id"`
	Status     Status     `json:"status"`
	Attempts   int        `json:"attempts_used"`
	Output     string     `json:"output_captured,omitempty"`
	Error      string     `json:"error_message,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Execution is the durable record of one workflow run. It is sealed once
// every step reaches a terminal status or the run is aborted.
type Execution struct {
	ExecutionID   string                 `json:"execution_id"`
	WorkflowID    string                 `json:"workflow_id"`
	OverallStatus Status                 `json:"overall_status"`
	StartedAt     time.Time              `json:"started_at"`
	FinishedAt    *time.Time             `json:"finished_at,omitempty"`
	Steps         map[string]*StepResult `json:"steps"`
	Variables     map[string]string      `json:"variables,omitempty"`
	Error         string                 `json:"error_message,omitempty"`
}

// Duration accepts either a duration string ("30s", "5m") or a bare number
// of seconds, in YAML and JSON alike. Zero means unset.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	if d == 0 {
		return []byte(`""`), nil
	}
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.decode(raw)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return d.decode(raw)
}

func (d *Duration) decode(raw any) error {
	switch v := raw.(type) {
	case nil:
		*d = 0
	case string:
		if v == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case int64:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}
