package model

import "time"

// ExecutionOutputStatus is the terminal status of a single node attempt.
type ExecutionOutputStatus string

const (
	ExecutionOutputSuccess ExecutionOutputStatus = "SUCCESS"
	ExecutionOutputFailed  ExecutionOutputStatus = "FAILED"
)

// ExecutionOutput is one row per completed node attempt (§3), written by
// the output handler on result ingestion and consumed exactly once, either
// by a downstream node's reference resolution (`${node:...}`) or by
// finalization, which collects and deletes the full set.
type ExecutionOutput struct {
	ID           ExecutionOutputID
	ExecutionID  ExecutionID
	NodeID       NodeID
	Status       ExecutionOutputStatus
	ResultData   map[string]any
	StartedAt    *time.Time
	EndedAt      *time.Time
	Duration     *float64
	MemoryMB     *float64
	CPUPercent   *float64
	ErrorMessage string
	ErrorDetails map[string]any
	RetryCount   int
}

// ToNodeResult converts a persisted output row into the consolidated
// per-node record Execution.results stores at finalization.
func (o ExecutionOutput) ToNodeResult() NodeResult {
	return NodeResult{
		Status:          string(o.Status),
		ResultData:      o.ResultData,
		MemoryMB:        o.MemoryMB,
		CPUPercent:      o.CPUPercent,
		DurationSeconds: o.Duration,
		ErrorMessage:    o.ErrorMessage,
		ErrorDetails:    o.ErrorDetails,
	}
}
