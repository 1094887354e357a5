package service

import (
	"context"
	"sort"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// InputScheduler implements the read side of the scheduler: selecting the
// next batch of ready nodes, building their task context, and clearing them
// from the pending queue once dispatch to the engine succeeds (§4.2).
type InputScheduler struct {
	executions repository.ExecutionRepository
	inputs     repository.ExecutionInputRepository
	nodes      repository.NodeRepository
	resolver   *ReferenceResolver
}

// NewInputScheduler wires the repositories and resolver the input handler
// loop needs.
func NewInputScheduler(executions repository.ExecutionRepository, inputs repository.ExecutionInputRepository, nodes repository.NodeRepository, resolver *ReferenceResolver) *InputScheduler {
	return &InputScheduler{executions: executions, inputs: inputs, nodes: nodes, resolver: resolver}
}

// GetReadyExecutionInputs loads every ExecutionInput with dependency_count
// 0, picks up to limit of them ordered by (priority DESC, wait_factor DESC,
// created_at ASC), and increments wait_factor on every ready row it did NOT
// select — starving nothing forever even under sustained priority pressure
// (§5 starvation freedom).
func (s *InputScheduler) GetReadyExecutionInputs(ctx context.Context, ex database.Executor, limit int) ([]*model.ExecutionInput, error) {
	ready, err := s.inputs.GetReady(ctx, ex)
	if err != nil {
		return nil, model.DatabaseQueryError("get_ready_execution_inputs", err)
	}
	if len(ready) == 0 {
		return nil, nil
	}

	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].Priority != ready[j].Priority {
			return ready[i].Priority > ready[j].Priority
		}
		return ready[i].WaitFactor > ready[j].WaitFactor
	})

	if limit <= 0 || limit >= len(ready) {
		return ready, nil
	}

	selected := ready[:limit]
	remainder := ready[limit:]

	remainderIDs := make([]model.ExecutionInputID, 0, len(remainder))
	for _, r := range remainder {
		remainderIDs = append(remainderIDs, r.ID)
	}
	if len(remainderIDs) > 0 {
		if err := s.inputs.IncrementWaitFactorByIDs(ctx, ex, remainderIDs); err != nil {
			return nil, model.DatabaseQueryError("increment_wait_factor", err)
		}
	}

	return selected, nil
}

// CreateExecutionContext resolves an ExecutionInput's declared params into
// the task payload the engine queue carries (§4.3). Reference resolution
// failures surface as CONTEXT_BUILD_ERROR, naming the offending
// ExecutionInput so the caller can fail just that node rather than the
// whole batch.
func (s *InputScheduler) CreateExecutionContext(ctx context.Context, ex database.Executor, input *model.ExecutionInput) (*model.TaskPayload, error) {
	execution, err := s.executions.FindByID(ctx, ex, input.ExecutionID)
	if err != nil {
		return nil, model.ResourceNotFound("execution", string(input.ExecutionID))
	}

	resolved, err := s.resolver.Resolve(ctx, ex, ResolveContext{
		WorkspaceID: execution.WorkspaceID(),
		ExecutionID: input.ExecutionID,
		TriggerData: execution.TriggerData(),
	}, input.Params)
	if err != nil {
		return nil, model.ContextBuildError(string(input.ID), err)
	}

	return &model.TaskPayload{
		ExecutionID:      input.ExecutionID,
		ExecutionInputID: input.ID,
		WorkspaceID:      execution.WorkspaceID(),
		WorkflowID:       input.WorkflowID,
		NodeID:           input.NodeID,
		NodeName:         input.NodeName,
		ScriptPath:       input.ScriptPath,
		Params:           resolved,
		MaxRetries:       input.MaxRetries,
		TimeoutSeconds:   input.TimeoutSeconds,
		Priority:         input.Priority,
	}, nil
}

// RemoveProcessedExecutionInputs deletes ExecutionInput rows after their
// tasks have been durably handed to the engine queue — never before, so a
// submission failure leaves the row in place for the next poll (§5
// at-most-once dispatch).
func (s *InputScheduler) RemoveProcessedExecutionInputs(ctx context.Context, ex database.Executor, ids []model.ExecutionInputID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.inputs.DeleteByIDs(ctx, ex, ids); err != nil {
		return model.DatabaseQueryError("remove_processed_execution_inputs", err)
	}
	return nil
}
