package model

import "time"

// RunKind names the pipeline a run log entry belongs to.
type RunKind string

const (
	RunKindSync    RunKind = "sync"
	RunKindCleanup RunKind = "cleanup"
)

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a row of the catalog run log.
type Run struct {
	ID          int64          `json:"id"`
	Kind        RunKind        `json:"kind"`
	Status      RunStatus      `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
}
