package workflow

import (
	"strings"

	"github.com/google/uuid"
)

// newID mints a typed identifier like "wf-3f2c9a1d". The short uuid prefix
// is plenty for ids scoped to one deployment's definition store.
func newID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + raw[:8]
}
