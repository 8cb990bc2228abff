package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// definitionSchema is the contract for workflow definition documents.
// Unknown fields pass through untouched; only the declared shapes are
// enforced.
const definitionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "steps"],
  "properties": {
    "id": {"type": "string"},
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "version": {"type": "string"},
    "variables": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "command"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "step_type": {"type": "string"},
          "command": {"type": "string", "minLength": 1},
          "args": {"type": "array", "items": {"type": "string"}},
          "timeout": {"type": ["string", "number"]},
          "retry_count": {"type": "integer", "minimum": 0},
          "depends_on": {"type": "array", "items": {"type": "string"}},
          "condition": {"type": "string"},
          "output": {"type": "string"}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func definitionSchemaCompiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("workflow.schema.json", strings.NewReader(definitionSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("workflow.schema.json")
	})
	return compiledSchema, schemaErr
}

// ParseDefinition decodes a workflow definition document (YAML or JSON;
// JSON is a subset of YAML) after validating it against the schema.
// Optional fields take their documented defaults.
func ParseDefinition(data []byte) (Definition, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Definition{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	schema, err := definitionSchemaCompiled()
	if err != nil {
		return Definition{}, err
	}
	// Round-trip through JSON so the validator sees canonical JSON types.
	doc, err := canonicalize(raw)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := schema.Validate(doc); err != nil {
		return Definition{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	applyDefaults(&def)
	return def, nil
}

func canonicalize(raw any) (any, error) {
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func applyDefaults(def *Definition) {
	if def.ID == "" {
		def.ID = newID("wf")
	}
	for i := range def.Steps {
		if def.Steps[i].Type == "" {
			def.Steps[i].Type = StepTypeCommand
		}
		if def.Steps[i].Name == "" {
			def.Steps[i].Name = def.Steps[i].ID
		}
	}
	if def.Variables == nil {
		def.Variables = map[string]string{}
	}
}
