package dto

import (
	"errors"
	"time"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
)

// StartExecutionRequest represents a request to start a new execution.
type StartExecutionRequest struct {
	WorkflowID  string         `json:"workflowId"`
	TriggerID   string         `json:"triggerId,omitempty"`
	TriggerData map[string]any `json:"triggerData,omitempty"`
}

// Validate validates the start execution request.
func (r *StartExecutionRequest) Validate() error {
	if r.WorkflowID == "" {
		return errors.New("workflow id is required")
	}
	return nil
}

// NodeResultResponse mirrors one entry of Execution.results.
type NodeResultResponse struct {
	Status          string         `json:"status"`
	ResultData      map[string]any `json:"resultData,omitempty"`
	MemoryMB        *float64       `json:"memoryMb,omitempty"`
	CPUPercent      *float64       `json:"cpuPercent,omitempty"`
	DurationSeconds *float64       `json:"durationSeconds,omitempty"`
	ErrorMessage    string         `json:"errorMessage,omitempty"`
	ErrorDetails    map[string]any `json:"errorDetails,omitempty"`
}

// ExecutionResponse represents an execution as returned by the HTTP API.
type ExecutionResponse struct {
	ID          string                        `json:"id"`
	WorkspaceID string                        `json:"workspaceId"`
	WorkflowID  string                        `json:"workflowId"`
	TriggerID   string                        `json:"triggerId,omitempty"`
	Status      string                        `json:"status"`
	TriggerData map[string]any                `json:"triggerData,omitempty"`
	Results     map[string]NodeResultResponse `json:"results,omitempty"`
	StartedAt   time.Time                     `json:"startedAt"`
	EndedAt     *time.Time                    `json:"endedAt,omitempty"`
}

// ToExecutionResponse converts a domain Execution into its wire shape.
func ToExecutionResponse(execution *model.Execution) ExecutionResponse {
	resp := ExecutionResponse{
		ID:          execution.ID().String(),
		WorkspaceID: execution.WorkspaceID().String(),
		WorkflowID:  execution.WorkflowID().String(),
		Status:      string(execution.Status()),
		TriggerData: execution.TriggerData(),
		StartedAt:   execution.StartedAt(),
		EndedAt:     execution.EndedAt(),
	}
	if execution.TriggerID() != nil {
		resp.TriggerID = execution.TriggerID().String()
	}

	results := execution.Results()
	if len(results) > 0 {
		resp.Results = make(map[string]NodeResultResponse, len(results))
		for nodeID, r := range results {
			resp.Results[nodeID.String()] = NodeResultResponse{
				Status: r.Status, ResultData: r.ResultData, MemoryMB: r.MemoryMB,
				CPUPercent: r.CPUPercent, DurationSeconds: r.DurationSeconds,
				ErrorMessage: r.ErrorMessage, ErrorDetails: r.ErrorDetails,
			}
		}
	}
	return resp
}

// ListExecutionsResponse represents a paginated list of executions.
type ListExecutionsResponse struct {
	Items      []ExecutionResponse `json:"items"`
	Pagination Pagination          `json:"pagination"`
}

// Pagination carries offset/limit/total for list endpoints.
type Pagination struct {
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Total  int64 `json:"total"`
}

// ErrorResponse is the uniform error envelope returned on failure, mirroring
// model.Error's code/message/details shape (§7 error taxonomy).
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
