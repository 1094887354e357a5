package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// TriggerRepository implements repository.TriggerRepository against the
// workflow bounded context's trigger table.
type TriggerRepository struct{}

// NewTriggerRepository builds a stateless trigger repository.
func NewTriggerRepository() repository.TriggerRepository {
	return &TriggerRepository{}
}

func (r *TriggerRepository) GetByID(ctx context.Context, ex database.Executor, id model.TriggerID) (*model.Trigger, error) {
	var trgID, workspaceID, workflowID string
	var inputMapping []byte
	err := ex.QueryRowContext(ctx,
		`SELECT id, workspace_id, workflow_id, input_mapping FROM triggers WHERE id = $1`,
		id.String(),
	).Scan(&trgID, &workspaceID, &workflowID, &inputMapping)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query trigger: %w", err)
	}

	var decodedMapping map[string]model.TriggerInputField
	if len(inputMapping) > 0 {
		if err := json.Unmarshal(inputMapping, &decodedMapping); err != nil {
			return nil, fmt.Errorf("failed to unmarshal input_mapping: %w", err)
		}
	}

	return &model.Trigger{
		ID:           model.TriggerID(trgID),
		WorkspaceID:  model.WorkspaceID(workspaceID),
		WorkflowID:   model.WorkflowID(workflowID),
		InputMapping: decodedMapping,
	}, nil
}
