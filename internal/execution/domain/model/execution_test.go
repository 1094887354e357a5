package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutionStartsPending(t *testing.T) {
	e := NewExecution(WorkspaceID("ws-1"), WorkflowID("wf-1"), nil, nil)

	assert.Equal(t, ExecutionStatusPending, e.Status())
	assert.NotEmpty(t, e.ID())
	assert.NotNil(t, e.TriggerData())
	assert.Nil(t, e.EndedAt())
}

func TestRunTransitionsPendingToRunning(t *testing.T) {
	e := NewExecution(WorkspaceID("ws-1"), WorkflowID("wf-1"), nil, nil)

	require.NoError(t, e.Run())
	assert.Equal(t, ExecutionStatusRunning, e.Status())
}

func TestRunRejectsNonPending(t *testing.T) {
	e := NewExecution(WorkspaceID("ws-1"), WorkflowID("wf-1"), nil, nil)
	require.NoError(t, e.Run())

	err := e.Run()
	assert.Error(t, err)
	assert.Equal(t, ExecutionStatusRunning, e.Status())
}

func TestFinalizeRejectsNonTerminalStatus(t *testing.T) {
	e := NewExecution(WorkspaceID("ws-1"), WorkflowID("wf-1"), nil, nil)
	require.NoError(t, e.Run())

	err := e.Finalize(ExecutionStatusRunning, nil)
	assert.Error(t, err)
	assert.Equal(t, ExecutionStatusRunning, e.Status())
}

func TestFinalizeSetsTerminalStatusAndResults(t *testing.T) {
	e := NewExecution(WorkspaceID("ws-1"), WorkflowID("wf-1"), nil, nil)
	require.NoError(t, e.Run())

	results := map[NodeID]NodeResult{
		NodeID("node-1"): {Status: "SUCCESS"},
	}
	require.NoError(t, e.Finalize(ExecutionStatusCompleted, results))

	assert.Equal(t, ExecutionStatusCompleted, e.Status())
	assert.NotNil(t, e.EndedAt())
	assert.Equal(t, results, e.Results())
}

func TestFinalizeIsIdempotentAgainstConcurrentFinalizers(t *testing.T) {
	e := NewExecution(WorkspaceID("ws-1"), WorkflowID("wf-1"), nil, nil)
	require.NoError(t, e.Run())

	firstResults := map[NodeID]NodeResult{NodeID("node-1"): {Status: "FAILED"}}
	require.NoError(t, e.Finalize(ExecutionStatusFailed, firstResults))
	endedAt := e.EndedAt()

	// A second finalizer (e.g. a racing output-handler worker) observes the
	// execution is already terminal and must not overwrite the outcome.
	secondResults := map[NodeID]NodeResult{NodeID("node-1"): {Status: "SUCCESS"}}
	require.NoError(t, e.Finalize(ExecutionStatusCompleted, secondResults))

	assert.Equal(t, ExecutionStatusFailed, e.Status())
	assert.Equal(t, firstResults, e.Results())
	assert.Equal(t, endedAt, e.EndedAt())
}

func TestIsTerminal(t *testing.T) {
	terminal := []ExecutionStatus{ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}

	nonTerminal := []ExecutionStatus{ExecutionStatusPending, ExecutionStatusRunning}
	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}

func TestReconstructExecutionRehydratesState(t *testing.T) {
	trigger := TriggerID("trg-1")
	results := map[NodeID]NodeResult{NodeID("node-1"): {Status: "SUCCESS"}}

	e := ReconstructExecution(
		ExecutionID("EXE-abc"), WorkspaceID("ws-1"), WorkflowID("wf-1"), &trigger,
		ExecutionStatusCompleted, time.Now(), nil, map[string]any{"foo": "bar"}, results,
	)

	assert.Equal(t, ExecutionID("EXE-abc"), e.ID())
	assert.Equal(t, &trigger, e.TriggerID())
	assert.Equal(t, ExecutionStatusCompleted, e.Status())
	assert.Equal(t, results, e.Results())
}
