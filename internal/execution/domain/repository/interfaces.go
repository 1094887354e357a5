// Package repository declares the storage contracts the execution core
// consumes abstractly. The core never depends on a concrete driver; see
// internal/execution/adapters/repository/postgres for the lib/pq-backed
// implementation.
package repository

import (
	"context"
	"errors"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// ErrNotFound is returned by single-row lookups that find nothing.
var ErrNotFound = errors.New("execution: record not found")

// ErrOptimisticLocking is returned when a version-guarded update affects no rows.
var ErrOptimisticLocking = errors.New("execution: optimistic lock conflict")

// ExecutionRepository persists the Execution aggregate.
type ExecutionRepository interface {
	Save(ctx context.Context, ex database.Executor, execution *model.Execution) error
	Update(ctx context.Context, ex database.Executor, execution *model.Execution) error
	FindByID(ctx context.Context, ex database.Executor, id model.ExecutionID) (*model.Execution, error)
	// FindByIDForUpdate locks the Execution row (SELECT ... FOR UPDATE) so
	// that a concurrent finalizer observes a consistent status before
	// writing the terminal transition (§5 finalization idempotence).
	FindByIDForUpdate(ctx context.Context, tx database.Executor, id model.ExecutionID) (*model.Execution, error)
	FindByWorkspaceAndStatus(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, status model.ExecutionStatus, offset, limit int) ([]*model.Execution, error)
	CountByWorkspaceAndStatus(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, status model.ExecutionStatus) (int64, error)
}

// ExecutionInputRepository persists the pending per-node work queue and
// implements the specialized bulk operations §6 requires.
type ExecutionInputRepository interface {
	InsertBatch(ctx context.Context, ex database.Executor, inputs []*model.ExecutionInput) error

	// GetReady selects rows with dependency_count = 0, ordered by
	// (priority DESC, wait_factor DESC, created_at ASC). It returns every
	// ready row so the caller can slice selected/remaining and drive the
	// wait_factor increment itself (§4.2).
	GetReady(ctx context.Context, ex database.Executor) ([]*model.ExecutionInput, error)

	IncrementWaitFactorByIDs(ctx context.Context, ex database.Executor, ids []model.ExecutionInputID) error

	// DecrementDependencyCountByNodeIDs decrements dependency_count by 1
	// for every ExecutionInput of executionID whose node_id is in nodeIDs,
	// clamped at 0, and returns the number of rows updated.
	DecrementDependencyCountByNodeIDs(ctx context.Context, ex database.Executor, executionID model.ExecutionID, nodeIDs []model.NodeID) (int, error)

	DeleteByIDs(ctx context.Context, ex database.Executor, ids []model.ExecutionInputID) (int, error)
	DeleteByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) (int, error)
	GetByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) ([]*model.ExecutionInput, error)
}

// ExecutionOutputRepository persists completed per-node attempts.
type ExecutionOutputRepository interface {
	Insert(ctx context.Context, ex database.Executor, output *model.ExecutionOutput) error
	GetByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) ([]*model.ExecutionOutput, error)
	GetByExecutionAndNode(ctx context.Context, ex database.Executor, executionID model.ExecutionID, nodeID model.NodeID) (*model.ExecutionOutput, error)
	DeleteByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) (int, error)
}

// WorkflowRepository loads the read-only workflow record the launcher
// resolves and workspace-checks before expanding a workflow's graph.
type WorkflowRepository interface {
	GetByID(ctx context.Context, ex database.Executor, id model.WorkflowID) (*model.Workflow, error)
}

// TriggerRepository loads the trigger a launch request names, so the
// launcher can validate trigger_data against its declared input_mapping
// (§4.1).
type TriggerRepository interface {
	GetByID(ctx context.Context, ex database.Executor, id model.TriggerID) (*model.Trigger, error)
}

// NodeRepository loads the read-only workflow graph's nodes.
type NodeRepository interface {
	GetByWorkflowID(ctx context.Context, ex database.Executor, workflowID model.WorkflowID) ([]*model.Node, error)
}

// EdgeRepository loads the read-only workflow graph's edges.
type EdgeRepository interface {
	GetByWorkflowID(ctx context.Context, ex database.Executor, workflowID model.WorkflowID) ([]*model.Edge, error)
	GetByFromNodeID(ctx context.Context, ex database.Executor, workflowID model.WorkflowID, fromNodeID model.NodeID) ([]*model.Edge, error)
}

// ScriptRepository bulk-loads globally shared executables.
type ScriptRepository interface {
	GetByIDs(ctx context.Context, ex database.Executor, ids []model.ScriptID) (map[model.ScriptID]*model.Script, error)
}

// CustomScriptRepository bulk-loads workspace-scoped executables.
type CustomScriptRepository interface {
	GetByIDs(ctx context.Context, ex database.Executor, ids []model.CustomScriptID) (map[model.CustomScriptID]*model.CustomScript, error)
}

// ResolvedVariable is the whole-value shape the `value:` reference kind returns.
type ResolvedVariable struct {
	Value    any
	IsSecret bool
}

// ResourceRepository is the reference resolver's read surface onto
// variables, credentials, database-connections and files — each of which
// must enforce the cross-workspace isolation check (§4.3, P5) by returning
// ErrNotFound whenever the record's workspace does not match the
// execution's (the resolver turns that into INVALID_INPUT, never leaking
// which workspace actually owns the record).
type ResourceRepository interface {
	GetVariable(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.VariableID) (*ResolvedVariable, error)
	GetCredential(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.CredentialID) (map[string]any, error)
	GetDatabaseConnection(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.DatabaseID) (map[string]any, error)
	GetFileMetadata(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.FileID) (map[string]any, error)
	ReadFileContent(ctx context.Context, workspaceID model.WorkspaceID, id model.FileID) (string, error)
}
