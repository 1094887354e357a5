package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// ExecutionRepository implements repository.ExecutionRepository using lib/pq.
type ExecutionRepository struct{}

// NewExecutionRepository builds a stateless PostgreSQL execution repository;
// every method takes its own database.Executor, so the repository itself
// holds no connection.
func NewExecutionRepository() repository.ExecutionRepository {
	return &ExecutionRepository{}
}

const executionColumns = `
	id, workspace_id, workflow_id, trigger_id, status,
	started_at, ended_at, trigger_data, results`

func (r *ExecutionRepository) Save(ctx context.Context, ex database.Executor, execution *model.Execution) error {
	triggerData, err := json.Marshal(execution.TriggerData())
	if err != nil {
		return fmt.Errorf("failed to marshal trigger_data: %w", err)
	}
	results, err := json.Marshal(execution.Results())
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	query := `INSERT INTO executions (` + executionColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = ex.ExecContext(ctx, query,
		execution.ID().String(),
		execution.WorkspaceID().String(),
		execution.WorkflowID().String(),
		nullableTriggerID(execution.TriggerID()),
		string(execution.Status()),
		execution.StartedAt(),
		database.NullTime(zeroIfNil(execution.EndedAt())),
		triggerData,
		results,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}
	return nil
}

func (r *ExecutionRepository) Update(ctx context.Context, ex database.Executor, execution *model.Execution) error {
	results, err := json.Marshal(execution.Results())
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	query := `UPDATE executions SET status = $2, ended_at = $3, results = $4 WHERE id = $1`
	_, err = ex.ExecContext(ctx, query,
		execution.ID().String(),
		string(execution.Status()),
		database.NullTime(zeroIfNil(execution.EndedAt())),
		results,
	)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}
	return nil
}

func (r *ExecutionRepository) FindByID(ctx context.Context, ex database.Executor, id model.ExecutionID) (*model.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`
	return r.scanOne(ex.QueryRowContext(ctx, query, id.String()))
}

// FindByIDForUpdate locks the row so a racing finalizer observes a
// consistent status before writing its terminal transition (§5).
func (r *ExecutionRepository) FindByIDForUpdate(ctx context.Context, tx database.Executor, id model.ExecutionID) (*model.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1 FOR UPDATE`
	return r.scanOne(tx.QueryRowContext(ctx, query, id.String()))
}

func (r *ExecutionRepository) FindByWorkspaceAndStatus(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, status model.ExecutionStatus, offset, limit int) ([]*model.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions
		WHERE workspace_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY started_at DESC LIMIT $3 OFFSET $4`

	rows, err := ex.QueryContext(ctx, query, workspaceID.String(), string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var out []*model.Execution
	for rows.Next() {
		execution, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, execution)
	}
	return out, rows.Err()
}

func (r *ExecutionRepository) CountByWorkspaceAndStatus(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, status model.ExecutionStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM executions WHERE workspace_id = $1 AND ($2 = '' OR status = $2)`
	var count int64
	if err := ex.QueryRowContext(ctx, query, workspaceID.String(), string(status)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count executions: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ExecutionRepository) scanOne(row *sql.Row) (*model.Execution, error) {
	return r.scan(row)
}

func (r *ExecutionRepository) scan(row rowScanner) (*model.Execution, error) {
	var (
		id, workspaceID, workflowID, status string
		triggerID                           sql.NullString
		startedAt                           time.Time
		endedAt                             sql.NullTime
		triggerData, results                []byte
	)

	if err := row.Scan(&id, &workspaceID, &workflowID, &triggerID, &status, &startedAt, &endedAt, &triggerData, &results); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	var decodedTriggerData map[string]any
	if len(triggerData) > 0 {
		if err := json.Unmarshal(triggerData, &decodedTriggerData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger_data: %w", err)
		}
	}
	var decodedResults map[model.NodeID]model.NodeResult
	if len(results) > 0 {
		if err := json.Unmarshal(results, &decodedResults); err != nil {
			return nil, fmt.Errorf("failed to unmarshal results: %w", err)
		}
	}

	var triggerIDPtr *model.TriggerID
	if triggerID.Valid {
		t := model.TriggerID(triggerID.String)
		triggerIDPtr = &t
	}
	var endedAtPtr *time.Time
	if endedAt.Valid {
		endedAtPtr = &endedAt.Time
	}

	return model.ReconstructExecution(
		model.ExecutionID(id),
		model.WorkspaceID(workspaceID),
		model.WorkflowID(workflowID),
		triggerIDPtr,
		model.ExecutionStatus(status),
		startedAt,
		endedAtPtr,
		decodedTriggerData,
		decodedResults,
	), nil
}

func nullableTriggerID(id *model.TriggerID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func zeroIfNil(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
