package model

// TaskPayload is what the input handler hands the engine queue for a single
// ready node: everything a worker needs to run it without touching the
// database itself (§6 task payload shape).
type TaskPayload struct {
	ExecutionID     ExecutionID    `json:"execution_id"`
	ExecutionInputID ExecutionInputID `json:"execution_input_id"`
	WorkspaceID     WorkspaceID    `json:"workspace_id"`
	WorkflowID      WorkflowID     `json:"workflow_id"`
	NodeID          NodeID         `json:"node_id"`
	NodeName        string         `json:"node_name"`
	ScriptPath      string         `json:"script_path"`
	Params          map[string]any `json:"params"`
	MaxRetries      int            `json:"max_retries"`
	TimeoutSeconds  int            `json:"timeout_seconds"`
	Priority        int            `json:"priority"`
}

// TaskResult is what the output handler consumes back from the engine (§6
// result payload shape): one terminal outcome for a single node execution.
type TaskResult struct {
	ExecutionID    ExecutionID    `json:"execution_id"`
	NodeID         NodeID         `json:"node_id"`
	Status         string         `json:"status"` // "SUCCESS" | "FAILED"
	ResultData     map[string]any `json:"result_data"`
	MemoryMB       *float64       `json:"memory_mb"`
	CPUPercent     *float64       `json:"cpu_percent"`
	DurationSeconds *float64      `json:"duration_seconds"`
	ErrorMessage   string         `json:"error_message"`
	ErrorDetails   map[string]any `json:"error_details"`
}
