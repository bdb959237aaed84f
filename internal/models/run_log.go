package models

import (
	"time"
)

// RunStatus is the overall outcome of one crawl run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "SUCCESS" // Every source succeeded
	RunStatusPartial RunStatus = "PARTIAL" // Some sources failed
	RunStatusFailed  RunStatus = "FAILED"  // Every source failed
)

// RunLog is the write-once audit record of one orchestrator invocation.
type RunLog struct {
	ID           string                 `json:"id"`
	Status       RunStatus              `json:"status"`
	ItemsFound   int                    `json:"items_found"` // Newly persisted items
	Message      string                 `json:"message"`
	ErrorDetails map[string]SourceError `json:"error_details,omitempty"`
	RunAt        time.Time              `json:"run_at"`
}

// SourceError captures why one source failed during a run.
type SourceError struct {
	Message string    `json:"message"`
	Stack   string    `json:"stack,omitempty"`
	Time    time.Time `json:"time"`
}

// DeriveRunStatus maps succeeded/failed source counts onto a run status.
func DeriveRunStatus(succeeded, failed int) RunStatus {
	switch {
	case failed == 0:
		return RunStatusSuccess
	case succeeded == 0:
		return RunStatusFailed
	default:
		return RunStatusPartial
	}
}

// HasErrors returns true when at least one source failed.
func (r *RunLog) HasErrors() bool {
	return len(r.ErrorDetails) > 0
}
