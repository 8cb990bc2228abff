package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDefinition = errors.New("invalid definition")

// ValidateDefinition performs structural validation before graph
// resolution: required fields present, step ids unique, runnable steps carry
// a command. Failures here mean the workflow never reaches Running.
func ValidateDefinition(def Definition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("%w: at least one step is required", ErrInvalidDefinition)
	}
	seen := make(map[string]bool, len(def.Steps))
	for i, s := range def.Steps {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: step %d has no id", ErrInvalidDefinition, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate step id %q", ErrInvalidDefinition, s.ID)
		}
		seen[s.ID] = true
		if s.RetryCount < 0 {
			return fmt.Errorf("%w: step %q has negative retry_count", ErrInvalidDefinition, s.ID)
		}
		if strings.TrimSpace(s.Command) == "" {
			return fmt.Errorf("%w: step %q has no command", ErrInvalidDefinition, s.ID)
		}
	}
	return nil
}
