package refit

import (
	"fmt"
	"time"
)

// RunSummary aggregates the outcome of one audit run. Updated counts
// fittings whose atomic unit committed; Skipped counts fittings that were
// rolled back or refused by the reducer connectivity guard.
type RunSummary struct {
	RunID    string        `json:"run_id"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// String renders the user-facing result line.
func (s RunSummary) String() string {
	return fmt.Sprintf("Updated: %d / Skipped: %d", s.Updated, s.Skipped)
}
