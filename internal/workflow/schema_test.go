package workflow

import (
	"errors"
	"testing"
	"time"
)

const sampleYAML = `
name: nightly-etl
description: pull, transform, publish
variables:
  src: /data/in
steps:
  - id: fetch
    command: curl
    args: ["-o", "$src/raw.json", "https://example.com/export"]
    timeout: 30s
    retry_count: 2
  - id: transform
    command: jq
    args: [".items", "$src/raw.json"]
    depends_on: [fetch]
    output: items
  - id: publish
    command: publish
    depends_on: [transform]
    timeout: 120
`

func TestParseDefinitionYAML(t *testing.T) {
	def, err := ParseDefinition([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Name != "nightly-etl" {
		t.Errorf("name = %q", def.Name)
	}
	if def.ID == "" {
		t.Error("id default not applied")
	}
	if len(def.Steps) != 3 {
		t.Fatalf("steps = %d", len(def.Steps))
	}
	if def.Steps[0].Timeout.Std() != 30*time.Second {
		t.Errorf("string timeout = %v", def.Steps[0].Timeout.Std())
	}
	if def.Steps[2].Timeout.Std() != 120*time.Second {
		t.Errorf("numeric timeout = %v, want 120s", def.Steps[2].Timeout.Std())
	}
	if def.Steps[0].Type != StepTypeCommand {
		t.Errorf("step_type default = %q", def.Steps[0].Type)
	}
	if def.Steps[1].Name != "transform" {
		t.Errorf("name default = %q", def.Steps[1].Name)
	}
	if def.Variables["src"] != "/data/in" {
		t.Errorf("variables = %v", def.Variables)
	}
}

func TestParseDefinitionJSON(t *testing.T) {
	doc := `{"name":"simple","steps":[{"id":"a","command":"true"}]}`
	def, err := ParseDefinition([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Steps[0].ID != "a" {
		t.Errorf("steps = %+v", def.Steps)
	}
}

func TestParseDefinitionRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"missing name":      `{"steps":[{"id":"a","command":"true"}]}`,
		"empty steps":       `{"name":"x","steps":[]}`,
		"step without id":   `{"name":"x","steps":[{"command":"true"}]}`,
		"step no command":   `{"name":"x","steps":[{"id":"a"}]}`,
		"negative retries":  `{"name":"x","steps":[{"id":"a","command":"true","retry_count":-1}]}`,
		"bool timeout":      `{"name":"x","steps":[{"id":"a","command":"true","timeout":true}]}`,
		"non-string args":   `{"name":"x","steps":[{"id":"a","command":"true","args":[1]}]}`,
		"not yaml at all":   `{{{{`,
		"non-string varmap": `{"name":"x","variables":{"a":{}},"steps":[{"id":"a","command":"true"}]}`,
	}
	for label, doc := range cases {
		if _, err := ParseDefinition([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", label)
		} else if !errors.Is(err, ErrInvalidDefinition) {
			t.Errorf("%s: error %v does not wrap ErrInvalidDefinition", label, err)
		}
	}
}

func TestValidateDefinition(t *testing.T) {
	good := Definition{Name: "ok", Steps: []Step{{ID: "a", Command: "true"}}}
	if err := ValidateDefinition(good); err != nil {
		t.Fatalf("valid definition rejected: %v", err)
	}
	dupe := Definition{Name: "dupe", Steps: []Step{{ID: "a", Command: "true"}, {ID: "a", Command: "true"}}}
	if err := ValidateDefinition(dupe); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("duplicate ids: got %v", err)
	}
}
