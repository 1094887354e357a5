package service

import (
	"context"
	"fmt"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// OutputScheduler implements the write side of the scheduler: ingesting a
// single node's terminal result, propagating dependency decrements to its
// successors, and finalizing the Execution once nothing is left to run
// (§4.4).
type OutputScheduler struct {
	executions repository.ExecutionRepository
	inputs     repository.ExecutionInputRepository
	outputs    repository.ExecutionOutputRepository
	edges      repository.EdgeRepository
}

// NewOutputScheduler wires the repositories the output handler loop needs.
func NewOutputScheduler(executions repository.ExecutionRepository, inputs repository.ExecutionInputRepository, outputs repository.ExecutionOutputRepository, edges repository.EdgeRepository) *OutputScheduler {
	return &OutputScheduler{executions: executions, inputs: inputs, outputs: outputs, edges: edges}
}

// ProcessResultOutcome summarizes what ProcessExecutionResult did, for the
// caller's logging/metrics.
type ProcessResultOutcome struct {
	ExecutionID        model.ExecutionID
	Status             string
	ExecutionCompleted bool
	IsLastNode         bool
	UpdatedDependencies int
}

// ProcessExecutionResult ingests one TaskResult and drives the execution
// forward: on failure it cancels every other pending node and finalizes the
// execution as FAILED; on success of a terminal node (no outgoing edges) it
// finalizes as COMPLETED; otherwise it decrements the dependency_count of
// every node the completed one feeds.
func (s *OutputScheduler) ProcessExecutionResult(ctx context.Context, ex database.Executor, result model.TaskResult) (*ProcessResultOutcome, error) {
	if result.ExecutionID == "" || result.Status == "" {
		return nil, model.InvalidInput("execution_id/status", "task result is missing execution_id or status")
	}

	execution, err := s.executions.FindByID(ctx, ex, result.ExecutionID)
	if err != nil {
		return nil, model.ResourceNotFound("execution", string(result.ExecutionID))
	}

	switch result.Status {
	case string(model.ExecutionOutputFailed):
		return s.handleFailedNode(ctx, ex, result, execution)
	case string(model.ExecutionOutputSuccess):
		return s.handleSuccessfulNode(ctx, ex, result, execution)
	default:
		return nil, model.InvalidInput("status", fmt.Sprintf("unknown result status %q", result.Status))
	}
}

func (s *OutputScheduler) handleFailedNode(ctx context.Context, ex database.Executor, result model.TaskResult, execution *model.Execution) (*ProcessResultOutcome, error) {
	if result.NodeID == "" {
		return nil, model.InvalidInput("node_id", "failed result is missing node_id")
	}

	cancelled, err := s.collectAndDeleteExecutionInputs(ctx, ex, result.ExecutionID, result.NodeID)
	if err != nil {
		return nil, err
	}
	outputs, err := s.collectAndDeleteExecutionOutputs(ctx, ex, result.ExecutionID)
	if err != nil {
		return nil, err
	}

	merged := make(map[model.NodeID]model.NodeResult, len(outputs)+len(cancelled))
	for k, v := range outputs {
		merged[k] = v
	}
	// Cancelled records take precedence over any stale completed output for
	// the same node, mirroring the scheduler's merge order.
	for k, v := range cancelled {
		merged[k] = v
	}
	merged[result.NodeID] = model.NodeResult{
		Status:       string(model.ExecutionOutputFailed),
		ErrorMessage: result.ErrorMessage,
		ErrorDetails: result.ErrorDetails,
	}

	if err := s.finalize(ctx, ex, execution.ID(), model.ExecutionStatusFailed, merged); err != nil {
		return nil, err
	}

	return &ProcessResultOutcome{ExecutionID: execution.ID(), Status: "FAILED", ExecutionCompleted: true}, nil
}

func (s *OutputScheduler) handleSuccessfulNode(ctx context.Context, ex database.Executor, result model.TaskResult, execution *model.Execution) (*ProcessResultOutcome, error) {
	if result.NodeID == "" {
		return nil, model.InvalidInput("node_id", "successful result is missing node_id")
	}

	output := &model.ExecutionOutput{
		ID:          model.NewExecutionOutputID(),
		ExecutionID: result.ExecutionID,
		NodeID:      result.NodeID,
		Status:      model.ExecutionOutputSuccess,
		ResultData:  result.ResultData,
		MemoryMB:    result.MemoryMB,
		CPUPercent:  result.CPUPercent,
		Duration:    result.DurationSeconds,
	}
	if err := s.outputs.Insert(ctx, ex, output); err != nil {
		return nil, model.DatabaseQueryError("insert_execution_output", err)
	}

	outgoing, err := s.edges.GetByFromNodeID(ctx, ex, execution.WorkflowID(), result.NodeID)
	if err != nil {
		return nil, model.DatabaseQueryError("get_outgoing_edges", err)
	}

	if len(outgoing) == 0 {
		outputs, err := s.collectAndDeleteExecutionOutputs(ctx, ex, result.ExecutionID)
		if err != nil {
			return nil, err
		}
		if err := s.finalize(ctx, ex, execution.ID(), model.ExecutionStatusCompleted, outputs); err != nil {
			return nil, err
		}
		return &ProcessResultOutcome{ExecutionID: execution.ID(), Status: "COMPLETED", ExecutionCompleted: true, IsLastNode: true}, nil
	}

	targetNodeIDs := make([]model.NodeID, 0, len(outgoing))
	for _, e := range outgoing {
		targetNodeIDs = append(targetNodeIDs, e.ToNodeID)
	}
	updated, err := s.inputs.DecrementDependencyCountByNodeIDs(ctx, ex, result.ExecutionID, targetNodeIDs)
	if err != nil {
		return nil, model.DatabaseQueryError("decrement_dependency_count", err)
	}

	return &ProcessResultOutcome{ExecutionID: execution.ID(), Status: "RUNNING", IsLastNode: false, UpdatedDependencies: updated}, nil
}

// collectAndDeleteExecutionInputs synthesizes a CANCELLED record for every
// still-pending ExecutionInput of the execution (the failed node's
// siblings/descendants that will now never run) and removes them, since
// they carry no outcome of their own once the execution is marked FAILED.
func (s *OutputScheduler) collectAndDeleteExecutionInputs(ctx context.Context, ex database.Executor, executionID model.ExecutionID, failedNodeID model.NodeID) (map[model.NodeID]model.NodeResult, error) {
	pending, err := s.inputs.GetByExecutionID(ctx, ex, executionID)
	if err != nil {
		return nil, model.DatabaseQueryError("get_execution_inputs", err)
	}

	cancelled := make(map[model.NodeID]model.NodeResult, len(pending))
	for _, p := range pending {
		cancelled[p.NodeID] = model.NodeResult{
			Status:       "CANCELLED",
			ErrorMessage: fmt.Sprintf("Cancelled because of failed node: %s", failedNodeID),
			ErrorDetails: map[string]any{"failed_node_id": string(failedNodeID)},
		}
	}

	if _, err := s.inputs.DeleteByExecutionID(ctx, ex, executionID); err != nil {
		return nil, model.DatabaseQueryError("delete_execution_inputs", err)
	}
	return cancelled, nil
}

// collectAndDeleteExecutionOutputs reads every ExecutionOutput row of the
// execution into the consolidated results shape and removes them — they
// exist only transiently between a node completing and the execution either
// finishing or failing (§3).
func (s *OutputScheduler) collectAndDeleteExecutionOutputs(ctx context.Context, ex database.Executor, executionID model.ExecutionID) (map[model.NodeID]model.NodeResult, error) {
	rows, err := s.outputs.GetByExecutionID(ctx, ex, executionID)
	if err != nil {
		return nil, model.DatabaseQueryError("get_execution_outputs", err)
	}

	results := make(map[model.NodeID]model.NodeResult, len(rows))
	for _, row := range rows {
		results[row.NodeID] = row.ToNodeResult()
	}

	if _, err := s.outputs.DeleteByExecutionID(ctx, ex, executionID); err != nil {
		return nil, model.DatabaseQueryError("delete_execution_outputs", err)
	}
	return results, nil
}

// finalize locks the Execution row before applying the terminal transition,
// so a concurrent finalizer racing on the last two nodes of a diamond graph
// never double-writes results (§5 finalization idempotence).
func (s *OutputScheduler) finalize(ctx context.Context, ex database.Executor, executionID model.ExecutionID, status model.ExecutionStatus, results map[model.NodeID]model.NodeResult) error {
	execution, err := s.executions.FindByIDForUpdate(ctx, ex, executionID)
	if err != nil {
		return model.ResourceNotFound("execution", string(executionID))
	}
	if err := execution.Finalize(status, results); err != nil {
		return model.ResultProcessingError(string(executionID), "", err)
	}
	if err := s.executions.Update(ctx, ex, execution); err != nil {
		return model.DatabaseQueryError("update_execution", err)
	}
	return nil
}
