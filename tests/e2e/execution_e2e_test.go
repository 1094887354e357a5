// +build e2e

package e2e_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// E2E test simulating full workflow execution flow
// These tests would normally run against a real test environment

type WorkflowE2E struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Status      string                 `json:"status"`
	Nodes       []NodeE2E              `json:"nodes"`
	Connections []ConnectionE2E        `json:"connections"`
	Settings    map[string]interface{} `json:"settings"`
}

type NodeE2E struct {
	ID     string                 `json:"id"`
	Type   string                 `json:"type"`
	Name   string                 `json:"name"`
	Config map[string]interface{} `json:"config"`
}

type ConnectionE2E struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type ExecutionE2E struct {
	ID           string            `json:"id"`
	WorkflowID   string            `json:"workflowId"`
	Status       string            `json:"status"`
	StartedAt    *time.Time        `json:"startedAt"`
	CompletedAt  *time.Time        `json:"completedAt"`
	Duration     int64             `json:"duration"`
	NodeResults  map[string]Result `json:"nodeResults"`
	Error        string            `json:"error"`
}

type Result struct {
	Status string      `json:"status"`
	Output interface{} `json:"output"`
	Error  string      `json:"error"`
}

// Mock executor for E2E tests
type MockExecutor struct {
	workflows  map[string]*WorkflowE2E
	executions map[string]*ExecutionE2E
}

func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		workflows:  make(map[string]*WorkflowE2E),
		executions: make(map[string]*ExecutionE2E),
	}
}

func (e *MockExecutor) CreateWorkflow(wf *WorkflowE2E) string {
	wf.ID = "wf-" + time.Now().Format("20060102150405")
	wf.Status = "draft"
	e.workflows[wf.ID] = wf
	return wf.ID
}

func (e *MockExecutor) ActivateWorkflow(id string) error {
	wf, exists := e.workflows[id]
	if !exists {
		return assert.AnError
	}
	wf.Status = "active"
	return nil
}

func (e *MockExecutor) ExecuteWorkflow(workflowID string, input map[string]interface{}) (*ExecutionE2E, error) {
	wf, exists := e.workflows[workflowID]
	if !exists {
		return nil, assert.AnError
	}
	if wf.Status != "active" {
		return nil, assert.AnError
	}

	now := time.Now()
	exec := &ExecutionE2E{
		ID:          "exec-" + now.Format("20060102150405"),
		WorkflowID:  workflowID,
		Status:      "running",
		StartedAt:   &now,
		NodeResults: make(map[string]Result),
	}
	e.executions[exec.ID] = exec

	// Simulate node execution
	for _, node := range wf.Nodes {
		result := e.executeNode(node, input)
		exec.NodeResults[node.ID] = result
		if result.Status == "failed" {
			exec.Status = "failed"
			exec.Error = result.Error
			break
		}
	}

	if exec.Status == "running" {
		exec.Status = "completed"
	}

	completedAt := time.Now()
	exec.CompletedAt = &completedAt
	exec.Duration = completedAt.Sub(*exec.StartedAt).Milliseconds()

	return exec, nil
}

func (e *MockExecutor) executeNode(node NodeE2E, input map[string]interface{}) Result {
	// Simulate different node types
	switch node.Type {
	case "trigger":
		return Result{Status: "completed", Output: input}
	case "action":
		return Result{Status: "completed", Output: map[string]interface{}{"result": "success"}}
	case "condition":
		return Result{Status: "completed", Output: map[string]interface{}{"branch": "true"}}
	default:
		return Result{Status: "completed", Output: nil}
	}
}

func (e *MockExecutor) GetExecution(id string) *ExecutionE2E {
	return e.executions[id]
}

// E2E Tests
func TestE2E_SimpleWorkflowExecution(t *testing.T) {
	executor := NewMockExecutor()

	// Create a simple workflow
	workflow := &WorkflowE2E{
		Name: "Simple HTTP Workflow",
		Nodes: []NodeE2E{
			{ID: "trigger-1", Type: "trigger", Name: "HTTP Trigger"},
			{ID: "action-1", Type: "action", Name: "Process Data"},
		},
		Connections: []ConnectionE2E{
			{Source: "trigger-1", Target: "action-1"},
		},
	}

	t.Run("create workflow", func(t *testing.T) {
		id := executor.CreateWorkflow(workflow)
		assert.NotEmpty(t, id)
		assert.Equal(t, "draft", workflow.Status)
	})

	t.Run("activate workflow", func(t *testing.T) {
		err := executor.ActivateWorkflow(workflow.ID)
		assert.NoError(t, err)
		assert.Equal(t, "active", workflow.Status)
	})

	t.Run("execute workflow", func(t *testing.T) {
		input := map[string]interface{}{
			"message": "Hello World",
		}

		exec, err := executor.ExecuteWorkflow(workflow.ID, input)
		require.NoError(t, err)
		assert.NotNil(t, exec)
		assert.Equal(t, "completed", exec.Status)
		assert.NotNil(t, exec.StartedAt)
		assert.NotNil(t, exec.CompletedAt)
		assert.Greater(t, exec.Duration, int64(0))

		// Verify node results
		assert.Len(t, exec.NodeResults, 2)
		assert.Equal(t, "completed", exec.NodeResults["trigger-1"].Status)
		assert.Equal(t, "completed", exec.NodeResults["action-1"].Status)
	})
}

func TestE2E_ConditionalWorkflowExecution(t *testing.T) {
	executor := NewMockExecutor()

	workflow := &WorkflowE2E{
		Name: "Conditional Workflow",
		Nodes: []NodeE2E{
			{ID: "trigger-1", Type: "trigger", Name: "HTTP Trigger"},
			{ID: "condition-1", Type: "condition", Name: "Check Status"},
			{ID: "action-success", Type: "action", Name: "Success Path"},
			{ID: "action-failure", Type: "action", Name: "Failure Path"},
		},
		Connections: []ConnectionE2E{
			{Source: "trigger-1", Target: "condition-1"},
			{Source: "condition-1", Target: "action-success"},
			{Source: "condition-1", Target: "action-failure"},
		},
	}

	_ = executor.CreateWorkflow(workflow)
	_ = executor.ActivateWorkflow(workflow.ID)

	exec, err := executor.ExecuteWorkflow(workflow.ID, map[string]interface{}{"status": "success"})
	require.NoError(t, err)
	assert.Equal(t, "completed", exec.Status)
	assert.Equal(t, "completed", exec.NodeResults["condition-1"].Status)
}

func TestE2E_WorkflowExecutionHistory(t *testing.T) {
	executor := NewMockExecutor()

	workflow := &WorkflowE2E{
		Name: "Test Workflow",
		Nodes: []NodeE2E{
			{ID: "trigger-1", Type: "trigger"},
			{ID: "action-1", Type: "action"},
		},
		Connections: []ConnectionE2E{
			{Source: "trigger-1", Target: "action-1"},
		},
	}

	_ = executor.CreateWorkflow(workflow)
	_ = executor.ActivateWorkflow(workflow.ID)

	// Run multiple executions
	var execIDs []string
	for i := 0; i < 3; i++ {
		exec, _ := executor.ExecuteWorkflow(workflow.ID, nil)
		execIDs = append(execIDs, exec.ID)
		time.Sleep(10 * time.Millisecond)
	}

	// Verify all executions are retrievable
	for _, id := range execIDs {
		exec := executor.GetExecution(id)
		assert.NotNil(t, exec)
		assert.Equal(t, workflow.ID, exec.WorkflowID)
	}
}

func TestE2E_WorkflowExecutionJSON(t *testing.T) {
	now := time.Now()
	exec := &ExecutionE2E{
		ID:         "exec-123",
		WorkflowID: "wf-456",
		Status:     "completed",
		StartedAt:  &now,
		Duration:   1500,
		NodeResults: map[string]Result{
			"node-1": {Status: "completed", Output: "data"},
		},
	}

	// Test JSON serialization
	data, err := json.Marshal(exec)
	require.NoError(t, err)

	var decoded ExecutionE2E
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, exec.ID, decoded.ID)
	assert.Equal(t, exec.Status, decoded.Status)
	assert.Equal(t, exec.Duration, decoded.Duration)
}
