package model

import (
	"fmt"
	"time"
)

// ExecutionStatus is the execution state machine of §3: PENDING and
// RUNNING are transient; COMPLETED, FAILED and CANCELLED are terminal.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "PENDING"
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusCancelled ExecutionStatus = "CANCELLED"
)

// IsTerminal reports whether status is one of COMPLETED/FAILED/CANCELLED.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// NodeResult is one entry of Execution.results: the consolidated, final
// record for a single node, merged in from whichever of ExecutionOutput
// (ran) or a synthesized CANCELLED/FAILED record (did not run, or failed)
// produced it.
type NodeResult struct {
	Status          string         `json:"status"`
	ResultData      map[string]any `json:"result_data,omitempty"`
	MemoryMB        *float64       `json:"memory_mb,omitempty"`
	CPUPercent      *float64       `json:"cpu_percent,omitempty"`
	DurationSeconds *float64       `json:"duration_seconds,omitempty"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	ErrorDetails    map[string]any `json:"error_details,omitempty"`
}

// Execution is the aggregate root tracking one run of a workflow from
// start to terminal status (§3).
type Execution struct {
	id          ExecutionID
	workspaceID WorkspaceID
	workflowID  WorkflowID
	triggerID   *TriggerID
	status      ExecutionStatus
	startedAt   time.Time
	endedAt     *time.Time
	triggerData map[string]any
	results     map[NodeID]NodeResult
}

// NewExecution creates a PENDING execution about to be expanded by the
// launcher into per-node ExecutionInput rows.
func NewExecution(workspaceID WorkspaceID, workflowID WorkflowID, triggerID *TriggerID, triggerData map[string]any) *Execution {
	if triggerData == nil {
		triggerData = make(map[string]any)
	}
	return &Execution{
		id:          NewExecutionID(),
		workspaceID: workspaceID,
		workflowID:  workflowID,
		triggerID:   triggerID,
		status:      ExecutionStatusPending,
		startedAt:   time.Now(),
		triggerData: triggerData,
	}
}

// ReconstructExecution rehydrates an Execution from persisted state.
func ReconstructExecution(
	id ExecutionID,
	workspaceID WorkspaceID,
	workflowID WorkflowID,
	triggerID *TriggerID,
	status ExecutionStatus,
	startedAt time.Time,
	endedAt *time.Time,
	triggerData map[string]any,
	results map[NodeID]NodeResult,
) *Execution {
	return &Execution{
		id:          id,
		workspaceID: workspaceID,
		workflowID:  workflowID,
		triggerID:   triggerID,
		status:      status,
		startedAt:   startedAt,
		endedAt:     endedAt,
		triggerData: triggerData,
		results:     results,
	}
}

func (e *Execution) ID() ExecutionID                { return e.id }
func (e *Execution) WorkspaceID() WorkspaceID        { return e.workspaceID }
func (e *Execution) WorkflowID() WorkflowID          { return e.workflowID }
func (e *Execution) TriggerID() *TriggerID           { return e.triggerID }
func (e *Execution) Status() ExecutionStatus         { return e.status }
func (e *Execution) StartedAt() time.Time            { return e.startedAt }
func (e *Execution) EndedAt() *time.Time             { return e.endedAt }
func (e *Execution) TriggerData() map[string]any     { return e.triggerData }
func (e *Execution) Results() map[NodeID]NodeResult  { return e.results }

// Run transitions PENDING -> RUNNING once ExecutionInput rows have been
// written by the launcher.
func (e *Execution) Run() error {
	if e.status != ExecutionStatusPending {
		return fmt.Errorf("cannot run execution in status %s", e.status)
	}
	e.status = ExecutionStatusRunning
	return nil
}

// Finalize applies the terminal status transition exactly once, atomically
// with writing the consolidated results (invariant 5). A second concurrent
// finalizer observing a non-PENDING/non-RUNNING status no-ops, per §5's
// finalization idempotence requirement.
func (e *Execution) Finalize(status ExecutionStatus, results map[NodeID]NodeResult) error {
	if !status.IsTerminal() {
		return fmt.Errorf("%s is not a terminal status", status)
	}
	if e.status.IsTerminal() {
		// Already finalized by a concurrent finalizer; idempotent no-op.
		return nil
	}
	now := time.Now()
	e.status = status
	e.endedAt = &now
	e.results = results
	return nil
}
