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

// fakeExecutionInputRepo is an in-memory stand-in for
// repository.ExecutionInputRepository, recording the calls the scheduler
// makes so tests can assert on them without a real Postgres instance.
type fakeExecutionInputRepo struct {
	ready               []*model.ExecutionInput
	incrementedWaitIDs  []model.ExecutionInputID
	deletedIDs          []model.ExecutionInputID
	inserted            []*model.ExecutionInput
}

func (f *fakeExecutionInputRepo) InsertBatch(ctx context.Context, ex database.Executor, inputs []*model.ExecutionInput) error {
	f.inserted = append(f.inserted, inputs...)
	return nil
}

func (f *fakeExecutionInputRepo) GetReady(ctx context.Context, ex database.Executor) ([]*model.ExecutionInput, error) {
	return f.ready, nil
}

func (f *fakeExecutionInputRepo) IncrementWaitFactorByIDs(ctx context.Context, ex database.Executor, ids []model.ExecutionInputID) error {
	f.incrementedWaitIDs = append(f.incrementedWaitIDs, ids...)
	return nil
}

func (f *fakeExecutionInputRepo) DecrementDependencyCountByNodeIDs(ctx context.Context, ex database.Executor, executionID model.ExecutionID, nodeIDs []model.NodeID) (int, error) {
	return 0, nil
}

func (f *fakeExecutionInputRepo) DeleteByIDs(ctx context.Context, ex database.Executor, ids []model.ExecutionInputID) (int, error) {
	f.deletedIDs = append(f.deletedIDs, ids...)
	return len(ids), nil
}

func (f *fakeExecutionInputRepo) DeleteByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) (int, error) {
	return 0, nil
}

func (f *fakeExecutionInputRepo) GetByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) ([]*model.ExecutionInput, error) {
	return nil, nil
}

var _ repository.ExecutionInputRepository = (*fakeExecutionInputRepo)(nil)

func TestGetReadyExecutionInputsOrdersByPriorityThenWaitFactor(t *testing.T) {
	repo := &fakeExecutionInputRepo{
		ready: []*model.ExecutionInput{
			{ID: "low-priority", Priority: 1, WaitFactor: 5},
			{ID: "high-priority", Priority: 10, WaitFactor: 0},
			{ID: "same-priority-older-wait", Priority: 5, WaitFactor: 3},
			{ID: "same-priority-newer-wait", Priority: 5, WaitFactor: 1},
		},
	}
	sched := NewInputScheduler(nil, repo, nil, nil)

	got, err := sched.GetReadyExecutionInputs(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, model.ExecutionInputID("high-priority"), got[0].ID)
	assert.Equal(t, model.ExecutionInputID("same-priority-older-wait"), got[1].ID)
	assert.Equal(t, model.ExecutionInputID("same-priority-newer-wait"), got[2].ID)
	assert.Equal(t, model.ExecutionInputID("low-priority"), got[3].ID)
}

func TestGetReadyExecutionInputsIncrementsWaitFactorOnUnselected(t *testing.T) {
	repo := &fakeExecutionInputRepo{
		ready: []*model.ExecutionInput{
			{ID: "selected-1", Priority: 10},
			{ID: "selected-2", Priority: 9},
			{ID: "starved", Priority: 1},
		},
	}
	sched := NewInputScheduler(nil, repo, nil, nil)

	got, err := sched.GetReadyExecutionInputs(context.Background(), nil, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.ElementsMatch(t, []model.ExecutionInputID{"selected-1", "selected-2"},
		[]model.ExecutionInputID{got[0].ID, got[1].ID})
	assert.Equal(t, []model.ExecutionInputID{"starved"}, repo.incrementedWaitIDs)
}

func TestGetReadyExecutionInputsReturnsNilWhenNoneReady(t *testing.T) {
	repo := &fakeExecutionInputRepo{}
	sched := NewInputScheduler(nil, repo, nil, nil)

	got, err := sched.GetReadyExecutionInputs(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoveProcessedExecutionInputsDeletesByID(t *testing.T) {
	repo := &fakeExecutionInputRepo{}
	sched := NewInputScheduler(nil, repo, nil, nil)

	ids := []model.ExecutionInputID{"a", "b"}
	require.NoError(t, sched.RemoveProcessedExecutionInputs(context.Background(), nil, ids))
	assert.Equal(t, ids, repo.deletedIDs)
}

func TestRemoveProcessedExecutionInputsNoopOnEmpty(t *testing.T) {
	repo := &fakeExecutionInputRepo{}
	sched := NewInputScheduler(nil, repo, nil, nil)

	require.NoError(t, sched.RemoveProcessedExecutionInputs(context.Background(), nil, nil))
	assert.Empty(t, repo.deletedIDs)
}
