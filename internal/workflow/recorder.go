package workflow

import (
	"fmt"
	"sort"
	"time"
)

// Seal finalizes an execution into its durable record shape: finish
// timestamp, overall status aggregated from step results, the final variable
// snapshot, and a summary error for the first failed step. Pure bookkeeping;
// persistence belongs to the Store.
func Seal(exec *Execution, vars *Variables) {
	finished := time.Now().UTC()
	exec.FinishedAt = &finished
	exec.OverallStatus = overallStatus(exec.Steps)
	if vars != nil {
		exec.Variables = vars.Snapshot()
	}
	if exec.OverallStatus != StatusSucceeded {
		for _, id := range sortedStepIDs(exec.Steps) {
			if res := exec.Steps[id]; res.Status == StatusFailed {
				exec.Error = fmt.Sprintf("step %q failed: %s", id, res.Error)
				break
			}
		}
		if exec.Error == "" {
			exec.Error = "run ended before any step completed"
		}
	}
}

// overallStatus folds step outcomes into the workflow outcome. Succeeded or
// Skipped steps count as clean; a step left Pending (blocked by a failed
// dependency, or never dispatched after cancellation) counts as neither
// success nor failure. A record where no step reached a terminal status at
// all is a failed run, not an empty success.
func overallStatus(steps map[string]*StepResult) Status {
	var failed, succeeded, skipped int
	for _, res := range steps {
		switch res.Status {
		case StatusFailed:
			failed++
		case StatusSucceeded:
			succeeded++
		case StatusSkipped:
			skipped++
		}
	}
	switch {
	case failed > 0 && succeeded > 0:
		return StatusPartiallyFailed
	case failed > 0:
		return StatusFailed
	case succeeded+skipped == 0 && len(steps) > 0:
		return StatusFailed
	default:
		return StatusSucceeded
	}
}

func sortedStepIDs(steps map[string]*StepResult) []string {
	ids := make([]string, 0, len(steps))
	for id := range steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
