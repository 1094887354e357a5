package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// fakeExecutionRepo is an in-memory stand-in for repository.ExecutionRepository
// holding exactly one Execution, keyed by its own ID.
type fakeExecutionRepo struct {
	execution *model.Execution
	updates   int
}

func (f *fakeExecutionRepo) Save(ctx context.Context, ex database.Executor, execution *model.Execution) error {
	f.execution = execution
	return nil
}

func (f *fakeExecutionRepo) Update(ctx context.Context, ex database.Executor, execution *model.Execution) error {
	f.updates++
	f.execution = execution
	return nil
}

func (f *fakeExecutionRepo) FindByID(ctx context.Context, ex database.Executor, id model.ExecutionID) (*model.Execution, error) {
	if f.execution == nil || f.execution.ID() != id {
		return nil, repository.ErrNotFound
	}
	return f.execution, nil
}

func (f *fakeExecutionRepo) FindByIDForUpdate(ctx context.Context, tx database.Executor, id model.ExecutionID) (*model.Execution, error) {
	return f.FindByID(ctx, tx, id)
}

func (f *fakeExecutionRepo) FindByWorkspaceAndStatus(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, status model.ExecutionStatus, offset, limit int) ([]*model.Execution, error) {
	return nil, nil
}

func (f *fakeExecutionRepo) CountByWorkspaceAndStatus(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, status model.ExecutionStatus) (int64, error) {
	return 0, nil
}

var _ repository.ExecutionRepository = (*fakeExecutionRepo)(nil)

// fakeExecutionOutputRepo is an in-memory stand-in for
// repository.ExecutionOutputRepository, keyed by execution ID.
type fakeExecutionOutputRepo struct {
	byExecution map[model.ExecutionID][]*model.ExecutionOutput
	deleted     []model.ExecutionID
}

func newFakeExecutionOutputRepo() *fakeExecutionOutputRepo {
	return &fakeExecutionOutputRepo{byExecution: map[model.ExecutionID][]*model.ExecutionOutput{}}
}

func (f *fakeExecutionOutputRepo) Insert(ctx context.Context, ex database.Executor, output *model.ExecutionOutput) error {
	f.byExecution[output.ExecutionID] = append(f.byExecution[output.ExecutionID], output)
	return nil
}

func (f *fakeExecutionOutputRepo) GetByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) ([]*model.ExecutionOutput, error) {
	return f.byExecution[executionID], nil
}

func (f *fakeExecutionOutputRepo) GetByExecutionAndNode(ctx context.Context, ex database.Executor, executionID model.ExecutionID, nodeID model.NodeID) (*model.ExecutionOutput, error) {
	for _, o := range f.byExecution[executionID] {
		if o.NodeID == nodeID {
			return o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeExecutionOutputRepo) DeleteByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) (int, error) {
	n := len(f.byExecution[executionID])
	delete(f.byExecution, executionID)
	f.deleted = append(f.deleted, executionID)
	return n, nil
}

var _ repository.ExecutionOutputRepository = (*fakeExecutionOutputRepo)(nil)

// fakeEdgeRepo is an in-memory stand-in for repository.EdgeRepository.
type fakeEdgeRepo struct {
	outgoing map[model.NodeID][]*model.Edge
}

func (f *fakeEdgeRepo) GetByWorkflowID(ctx context.Context, ex database.Executor, workflowID model.WorkflowID) ([]*model.Edge, error) {
	var all []*model.Edge
	for _, edges := range f.outgoing {
		all = append(all, edges...)
	}
	return all, nil
}

func (f *fakeEdgeRepo) GetByFromNodeID(ctx context.Context, ex database.Executor, workflowID model.WorkflowID, fromNodeID model.NodeID) ([]*model.Edge, error) {
	return f.outgoing[fromNodeID], nil
}

var _ repository.EdgeRepository = (*fakeEdgeRepo)(nil)

// outputTestSchedulerInputRepo extends the fakeExecutionInputRepo used by
// scheduler_input_test.go with the GetByExecutionID/DeleteByExecutionID
// behavior the output scheduler's cancellation path exercises.
type outputTestSchedulerInputRepo struct {
	fakeExecutionInputRepo
	pending          []*model.ExecutionInput
	deletedExecution []model.ExecutionID
}

func (f *outputTestSchedulerInputRepo) GetByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) ([]*model.ExecutionInput, error) {
	return f.pending, nil
}

func (f *outputTestSchedulerInputRepo) DeleteByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) (int, error) {
	f.deletedExecution = append(f.deletedExecution, executionID)
	n := len(f.pending)
	f.pending = nil
	return n, nil
}

var _ repository.ExecutionInputRepository = (*outputTestSchedulerInputRepo)(nil)

func newRunningExecution(t *testing.T) *model.Execution {
	t.Helper()
	e := model.NewExecution(model.WorkspaceID("ws-1"), model.WorkflowID("wf-1"), nil, nil)
	require.NoError(t, e.Run())
	return e
}

func TestProcessExecutionResultRejectsMissingFields(t *testing.T) {
	sched := NewOutputScheduler(&fakeExecutionRepo{}, &outputTestSchedulerInputRepo{}, newFakeExecutionOutputRepo(), &fakeEdgeRepo{})

	_, err := sched.ProcessExecutionResult(context.Background(), nil, model.TaskResult{})
	assert.Error(t, err)
}

func TestProcessExecutionResultRejectsUnknownStatus(t *testing.T) {
	execution := newRunningExecution(t)
	sched := NewOutputScheduler(&fakeExecutionRepo{execution: execution}, &outputTestSchedulerInputRepo{}, newFakeExecutionOutputRepo(), &fakeEdgeRepo{})

	_, err := sched.ProcessExecutionResult(context.Background(), nil, model.TaskResult{
		ExecutionID: execution.ID(), NodeID: "n1", Status: "BOGUS",
	})
	assert.Error(t, err)
}

func TestProcessExecutionResultRejectsMissingNodeID(t *testing.T) {
	execution := newRunningExecution(t)
	sched := NewOutputScheduler(&fakeExecutionRepo{execution: execution}, &outputTestSchedulerInputRepo{}, newFakeExecutionOutputRepo(), &fakeEdgeRepo{})

	_, err := sched.ProcessExecutionResult(context.Background(), nil, model.TaskResult{
		ExecutionID: execution.ID(), Status: string(model.ExecutionOutputFailed),
	})
	assert.Error(t, err)
}

func TestProcessExecutionResultFailedNodeCancelsSiblingsAndFinalizesFailed(t *testing.T) {
	execution := newRunningExecution(t)
	executions := &fakeExecutionRepo{execution: execution}
	inputs := &outputTestSchedulerInputRepo{
		pending: []*model.ExecutionInput{
			{ID: "in-2", ExecutionID: execution.ID(), NodeID: "n2"},
			{ID: "in-3", ExecutionID: execution.ID(), NodeID: "n3"},
		},
	}
	outputs := newFakeExecutionOutputRepo()
	outputs.byExecution[execution.ID()] = []*model.ExecutionOutput{
		{ID: "out-0", ExecutionID: execution.ID(), NodeID: "n0", Status: model.ExecutionOutputSuccess},
	}
	sched := NewOutputScheduler(executions, inputs, outputs, &fakeEdgeRepo{})

	outcome, err := sched.ProcessExecutionResult(context.Background(), nil, model.TaskResult{
		ExecutionID:  execution.ID(),
		NodeID:       "n1",
		Status:       string(model.ExecutionOutputFailed),
		ErrorMessage: "boom",
	})
	require.NoError(t, err)
	assert.Equal(t, "FAILED", outcome.Status)
	assert.True(t, outcome.ExecutionCompleted)

	assert.Equal(t, model.ExecutionStatusFailed, execution.Status())
	results := execution.Results()
	require.Contains(t, results, model.NodeID("n1"))
	assert.Equal(t, "FAILED", results["n1"].Status)
	assert.Equal(t, "boom", results["n1"].ErrorMessage)
	require.Contains(t, results, model.NodeID("n2"))
	assert.Equal(t, "CANCELLED", results["n2"].Status)
	require.Contains(t, results, model.NodeID("n3"))
	assert.Equal(t, "CANCELLED", results["n3"].Status)
	require.Contains(t, results, model.NodeID("n0"))
	assert.Equal(t, "SUCCESS", results["n0"].Status)

	assert.Equal(t, []model.ExecutionID{execution.ID()}, inputs.deletedExecution)
	assert.Equal(t, []model.ExecutionID{execution.ID()}, outputs.deleted)
}

func TestProcessExecutionResultCancelledTakesPrecedenceOverStaleOutput(t *testing.T) {
	execution := newRunningExecution(t)
	executions := &fakeExecutionRepo{execution: execution}
	// n2 has both a stale completed output and a still-pending input; the
	// cancellation must win since the execution is failing.
	inputs := &outputTestSchedulerInputRepo{
		pending: []*model.ExecutionInput{{ID: "in-2", ExecutionID: execution.ID(), NodeID: "n2"}},
	}
	outputs := newFakeExecutionOutputRepo()
	outputs.byExecution[execution.ID()] = []*model.ExecutionOutput{
		{ID: "out-2", ExecutionID: execution.ID(), NodeID: "n2", Status: model.ExecutionOutputSuccess},
	}
	sched := NewOutputScheduler(executions, inputs, outputs, &fakeEdgeRepo{})

	_, err := sched.ProcessExecutionResult(context.Background(), nil, model.TaskResult{
		ExecutionID: execution.ID(), NodeID: "n1", Status: string(model.ExecutionOutputFailed),
	})
	require.NoError(t, err)

	assert.Equal(t, "CANCELLED", execution.Results()["n2"].Status)
}

func TestProcessExecutionResultSuccessfulTerminalNodeFinalizesCompleted(t *testing.T) {
	execution := newRunningExecution(t)
	executions := &fakeExecutionRepo{execution: execution}
	inputs := &outputTestSchedulerInputRepo{}
	outputs := newFakeExecutionOutputRepo()
	edges := &fakeEdgeRepo{outgoing: map[model.NodeID][]*model.Edge{}}
	sched := NewOutputScheduler(executions, inputs, outputs, edges)

	outcome, err := sched.ProcessExecutionResult(context.Background(), nil, model.TaskResult{
		ExecutionID: execution.ID(),
		NodeID:      "n1",
		Status:      string(model.ExecutionOutputSuccess),
		ResultData:  map[string]any{"ok": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", outcome.Status)
	assert.True(t, outcome.IsLastNode)
	assert.True(t, outcome.ExecutionCompleted)

	assert.Equal(t, model.ExecutionStatusCompleted, execution.Status())
	require.Contains(t, execution.Results(), model.NodeID("n1"))
	assert.Equal(t, "SUCCESS", execution.Results()["n1"].Status)
}

func TestProcessExecutionResultSuccessfulNonTerminalNodeDecrementsDependencies(t *testing.T) {
	execution := newRunningExecution(t)
	executions := &fakeExecutionRepo{execution: execution}
	inputs := &outputTestSchedulerInputRepo{}
	outputs := newFakeExecutionOutputRepo()
	edges := &fakeEdgeRepo{outgoing: map[model.NodeID][]*model.Edge{
		"n1": {
			{ID: "e1", WorkflowID: "wf-1", FromNodeID: "n1", ToNodeID: "n2"},
			{ID: "e2", WorkflowID: "wf-1", FromNodeID: "n1", ToNodeID: "n3"},
		},
	}}
	sched := NewOutputScheduler(executions, inputs, outputs, edges)

	outcome, err := sched.ProcessExecutionResult(context.Background(), nil, model.TaskResult{
		ExecutionID: execution.ID(), NodeID: "n1", Status: string(model.ExecutionOutputSuccess),
	})
	require.NoError(t, err)
	assert.Equal(t, "RUNNING", outcome.Status)
	assert.False(t, outcome.IsLastNode)
	assert.False(t, outcome.ExecutionCompleted)

	assert.Equal(t, model.ExecutionStatusRunning, execution.Status())
	require.Len(t, outputs.byExecution[execution.ID()], 1)
	assert.Equal(t, model.NodeID("n1"), outputs.byExecution[execution.ID()][0].NodeID)
}

func TestProcessExecutionResultFinalizeIsIdempotentAcrossCalls(t *testing.T) {
	execution := newRunningExecution(t)
	executions := &fakeExecutionRepo{execution: execution}
	inputs := &outputTestSchedulerInputRepo{}
	outputs := newFakeExecutionOutputRepo()
	edges := &fakeEdgeRepo{outgoing: map[model.NodeID][]*model.Edge{}}
	sched := NewOutputScheduler(executions, inputs, outputs, edges)

	_, err := sched.ProcessExecutionResult(context.Background(), nil, model.TaskResult{
		ExecutionID: execution.ID(), NodeID: "n1", Status: string(model.ExecutionOutputSuccess),
	})
	require.NoError(t, err)
	firstResults := execution.Results()

	// A second, racing result for a sibling arrives after the execution is
	// already terminal; finalize must no-op rather than overwrite it.
	_, err = sched.ProcessExecutionResult(context.Background(), nil, model.TaskResult{
		ExecutionID: execution.ID(), NodeID: "n2", Status: string(model.ExecutionOutputFailed),
	})
	require.NoError(t, err)

	assert.Equal(t, model.ExecutionStatusCompleted, execution.Status())
	assert.Equal(t, firstResults, execution.Results())
}
