package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// ExecutionInputRepository implements repository.ExecutionInputRepository.
type ExecutionInputRepository struct{}

// NewExecutionInputRepository builds a stateless execution_input repository.
func NewExecutionInputRepository() repository.ExecutionInputRepository {
	return &ExecutionInputRepository{}
}

const executionInputColumns = `
	id, execution_id, workspace_id, workflow_id, node_id, node_name, script_path,
	params, dependency_count, wait_factor, priority, max_retries, timeout_seconds`

func (r *ExecutionInputRepository) InsertBatch(ctx context.Context, ex database.Executor, inputs []*model.ExecutionInput) error {
	if len(inputs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO execution_inputs (` + executionInputColumns + `) VALUES `)
	args := make([]any, 0, len(inputs)*13)
	for i, in := range inputs {
		params, err := json.Marshal(in.Params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		base := i * 13
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11, base+12, base+13)
		args = append(args,
			in.ID.String(), in.ExecutionID.String(), in.WorkspaceID.String(), in.WorkflowID.String(),
			in.NodeID.String(), in.NodeName, in.ScriptPath, params,
			in.DependencyCount, in.WaitFactor, in.Priority, in.MaxRetries, in.TimeoutSeconds,
		)
	}

	if _, err := ex.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert execution inputs: %w", err)
	}
	return nil
}

// GetReady selects every row with dependency_count = 0, ordered by
// (priority DESC, wait_factor DESC, created_at ASC) — the caller slices
// selected/remainder and drives wait_factor itself (§4.2).
func (r *ExecutionInputRepository) GetReady(ctx context.Context, ex database.Executor) ([]*model.ExecutionInput, error) {
	query := `SELECT ` + executionInputColumns + ` FROM execution_inputs
		WHERE dependency_count = 0
		ORDER BY priority DESC, wait_factor DESC, created_at ASC`

	rows, err := ex.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ready execution inputs: %w", err)
	}
	defer rows.Close()

	var out []*model.ExecutionInput
	for rows.Next() {
		in, err := scanExecutionInput(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *ExecutionInputRepository) IncrementWaitFactorByIDs(ctx context.Context, ex database.Executor, ids []model.ExecutionInputID) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, args := idPlaceholders(ids)
	query := fmt.Sprintf(`UPDATE execution_inputs SET wait_factor = wait_factor + 1 WHERE id IN (%s)`, placeholders)
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to increment wait_factor: %w", err)
	}
	return nil
}

// DecrementDependencyCountByNodeIDs clamps dependency_count at 0 via
// GREATEST, so a duplicate decrement (should one ever occur) can never
// drive a row negative.
func (r *ExecutionInputRepository) DecrementDependencyCountByNodeIDs(ctx context.Context, ex database.Executor, executionID model.ExecutionID, nodeIDs []model.NodeID) (int, error) {
	if len(nodeIDs) == 0 {
		return 0, nil
	}
	placeholders, args := nodeIDPlaceholders(nodeIDs, 2)
	query := fmt.Sprintf(`UPDATE execution_inputs
		SET dependency_count = GREATEST(dependency_count - 1, 0)
		WHERE execution_id = $1 AND node_id IN (%s)`, placeholders)

	result, err := ex.ExecContext(ctx, query, append([]any{executionID.String()}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to decrement dependency count: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

func (r *ExecutionInputRepository) DeleteByIDs(ctx context.Context, ex database.Executor, ids []model.ExecutionInputID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders, args := idPlaceholders(ids)
	query := fmt.Sprintf(`DELETE FROM execution_inputs WHERE id IN (%s)`, placeholders)
	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete execution inputs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

func (r *ExecutionInputRepository) DeleteByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) (int, error) {
	result, err := ex.ExecContext(ctx, `DELETE FROM execution_inputs WHERE execution_id = $1`, executionID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to delete execution inputs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

func (r *ExecutionInputRepository) GetByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) ([]*model.ExecutionInput, error) {
	query := `SELECT ` + executionInputColumns + ` FROM execution_inputs WHERE execution_id = $1`
	rows, err := ex.QueryContext(ctx, query, executionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query execution inputs: %w", err)
	}
	defer rows.Close()

	var out []*model.ExecutionInput
	for rows.Next() {
		in, err := scanExecutionInput(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func scanExecutionInput(row rowScanner) (*model.ExecutionInput, error) {
	var (
		id, executionID, workspaceID, workflowID, nodeID, nodeName, scriptPath string
		params                                                                 []byte
		dependencyCount, waitFactor, priority, maxRetries, timeoutSeconds      int
	)
	if err := row.Scan(&id, &executionID, &workspaceID, &workflowID, &nodeID, &nodeName, &scriptPath,
		&params, &dependencyCount, &waitFactor, &priority, &maxRetries, &timeoutSeconds); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan execution input: %w", err)
	}

	var decodedParams map[string]model.ParamSpec
	if len(params) > 0 {
		if err := json.Unmarshal(params, &decodedParams); err != nil {
			return nil, fmt.Errorf("failed to unmarshal params: %w", err)
		}
	}

	return &model.ExecutionInput{
		ID: model.ExecutionInputID(id), ExecutionID: model.ExecutionID(executionID),
		WorkspaceID: model.WorkspaceID(workspaceID), WorkflowID: model.WorkflowID(workflowID),
		NodeID: model.NodeID(nodeID), NodeName: nodeName, ScriptPath: scriptPath,
		Params: decodedParams, DependencyCount: dependencyCount, WaitFactor: waitFactor,
		Priority: priority, MaxRetries: maxRetries, TimeoutSeconds: timeoutSeconds,
	}, nil
}

func idPlaceholders(ids []model.ExecutionInputID) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id.String()
	}
	return strings.Join(placeholders, ","), args
}

func nodeIDPlaceholders(ids []model.NodeID, startAt int) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", startAt+i)
		args[i] = id.String()
	}
	return strings.Join(placeholders, ","), args
}
