package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// WorkflowRepository implements repository.WorkflowRepository against the
// workflow bounded context's own table.
type WorkflowRepository struct{}

// NewWorkflowRepository builds a stateless workflow repository.
func NewWorkflowRepository() repository.WorkflowRepository {
	return &WorkflowRepository{}
}

func (r *WorkflowRepository) GetByID(ctx context.Context, ex database.Executor, id model.WorkflowID) (*model.Workflow, error) {
	var wfID, workspaceID, name string
	err := ex.QueryRowContext(ctx,
		`SELECT id, workspace_id, name FROM workflows WHERE id = $1`,
		id.String(),
	).Scan(&wfID, &workspaceID, &name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query workflow: %w", err)
	}

	return &model.Workflow{
		ID:          model.WorkflowID(wfID),
		WorkspaceID: model.WorkspaceID(workspaceID),
		Name:        name,
	}, nil
}
