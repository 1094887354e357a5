package postgres

import (
	"context"
	"fmt"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// EdgeRepository implements repository.EdgeRepository against the
// read-only workflow graph tables owned by the workflow bounded context.
type EdgeRepository struct{}

// NewEdgeRepository builds a stateless edge repository.
func NewEdgeRepository() repository.EdgeRepository {
	return &EdgeRepository{}
}

func (r *EdgeRepository) GetByWorkflowID(ctx context.Context, ex database.Executor, workflowID model.WorkflowID) ([]*model.Edge, error) {
	query := `SELECT id, workflow_id, from_node_id, to_node_id FROM edges WHERE workflow_id = $1`
	return r.queryEdges(ctx, ex, query, workflowID.String())
}

func (r *EdgeRepository) GetByFromNodeID(ctx context.Context, ex database.Executor, workflowID model.WorkflowID, fromNodeID model.NodeID) ([]*model.Edge, error) {
	query := `SELECT id, workflow_id, from_node_id, to_node_id FROM edges WHERE workflow_id = $1 AND from_node_id = $2`
	return r.queryEdges(ctx, ex, query, workflowID.String(), fromNodeID.String())
}

func (r *EdgeRepository) queryEdges(ctx context.Context, ex database.Executor, query string, args ...any) ([]*model.Edge, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var out []*model.Edge
	for rows.Next() {
		var id, wfID, fromNodeID, toNodeID string
		if err := rows.Scan(&id, &wfID, &fromNodeID, &toNodeID); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		out = append(out, &model.Edge{
			ID: model.EdgeID(id), WorkflowID: model.WorkflowID(wfID),
			FromNodeID: model.NodeID(fromNodeID), ToNodeID: model.NodeID(toNodeID),
		})
	}
	return out, rows.Err()
}
