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

// ExecutionOutputRepository implements repository.ExecutionOutputRepository.
type ExecutionOutputRepository struct{}

// NewExecutionOutputRepository builds a stateless execution_output repository.
func NewExecutionOutputRepository() repository.ExecutionOutputRepository {
	return &ExecutionOutputRepository{}
}

const executionOutputColumns = `
	id, execution_id, node_id, status, result_data, started_at, ended_at,
	duration_seconds, memory_mb, cpu_percent, error_message, error_details, retry_count`

func (r *ExecutionOutputRepository) Insert(ctx context.Context, ex database.Executor, output *model.ExecutionOutput) error {
	resultData, err := json.Marshal(output.ResultData)
	if err != nil {
		return fmt.Errorf("failed to marshal result_data: %w", err)
	}
	errorDetails, err := json.Marshal(output.ErrorDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal error_details: %w", err)
	}

	query := `INSERT INTO execution_outputs (` + executionOutputColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err = ex.ExecContext(ctx, query,
		output.ID.String(), output.ExecutionID.String(), output.NodeID.String(), string(output.Status),
		resultData, nullTimeFromPtr(output.StartedAt), nullTimeFromPtr(output.EndedAt),
		nullFloatPtr(output.Duration), nullFloatPtr(output.MemoryMB), nullFloatPtr(output.CPUPercent),
		output.ErrorMessage, errorDetails, output.RetryCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution output: %w", err)
	}
	return nil
}

func (r *ExecutionOutputRepository) GetByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) ([]*model.ExecutionOutput, error) {
	query := `SELECT ` + executionOutputColumns + ` FROM execution_outputs WHERE execution_id = $1`
	rows, err := ex.QueryContext(ctx, query, executionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query execution outputs: %w", err)
	}
	defer rows.Close()

	var out []*model.ExecutionOutput
	for rows.Next() {
		o, err := scanExecutionOutput(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *ExecutionOutputRepository) GetByExecutionAndNode(ctx context.Context, ex database.Executor, executionID model.ExecutionID, nodeID model.NodeID) (*model.ExecutionOutput, error) {
	query := `SELECT ` + executionOutputColumns + ` FROM execution_outputs WHERE execution_id = $1 AND node_id = $2`
	return scanExecutionOutput(ex.QueryRowContext(ctx, query, executionID.String(), nodeID.String()))
}

func (r *ExecutionOutputRepository) DeleteByExecutionID(ctx context.Context, ex database.Executor, executionID model.ExecutionID) (int, error) {
	result, err := ex.ExecContext(ctx, `DELETE FROM execution_outputs WHERE execution_id = $1`, executionID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to delete execution outputs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

func scanExecutionOutput(row rowScanner) (*model.ExecutionOutput, error) {
	var (
		id, executionID, nodeID, status string
		resultData, errorDetails        []byte
		startedAt, endedAt               sql.NullTime
		duration, memoryMB, cpuPercent   sql.NullFloat64
		errorMessage                    string
		retryCount                      int
	)
	if err := row.Scan(&id, &executionID, &nodeID, &status, &resultData, &startedAt, &endedAt,
		&duration, &memoryMB, &cpuPercent, &errorMessage, &errorDetails, &retryCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan execution output: %w", err)
	}

	var decodedResultData map[string]any
	if len(resultData) > 0 {
		if err := json.Unmarshal(resultData, &decodedResultData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result_data: %w", err)
		}
	}
	var decodedErrorDetails map[string]any
	if len(errorDetails) > 0 {
		if err := json.Unmarshal(errorDetails, &decodedErrorDetails); err != nil {
			return nil, fmt.Errorf("failed to unmarshal error_details: %w", err)
		}
	}

	return &model.ExecutionOutput{
		ID: model.ExecutionOutputID(id), ExecutionID: model.ExecutionID(executionID), NodeID: model.NodeID(nodeID),
		Status: model.ExecutionOutputStatus(status), ResultData: decodedResultData,
		StartedAt: nullTimeToPtr(startedAt), EndedAt: nullTimeToPtr(endedAt),
		Duration: nullFloatToPtr(duration), MemoryMB: nullFloatToPtr(memoryMB), CPUPercent: nullFloatToPtr(cpuPercent),
		ErrorMessage: errorMessage, ErrorDetails: decodedErrorDetails, RetryCount: retryCount,
	}, nil
}

func nullTimeFromPtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloatPtr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTimeToPtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullFloatToPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
