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

// NodeRepository implements repository.NodeRepository against the
// read-only workflow graph tables owned by the workflow bounded context.
type NodeRepository struct{}

// NewNodeRepository builds a stateless node repository.
func NewNodeRepository() repository.NodeRepository {
	return &NodeRepository{}
}

func (r *NodeRepository) GetByWorkflowID(ctx context.Context, ex database.Executor, workflowID model.WorkflowID) ([]*model.Node, error) {
	query := `SELECT id, workflow_id, name, script_id, custom_script_id, input_params, max_retries, timeout_seconds
		FROM nodes WHERE workflow_id = $1`

	rows, err := ex.QueryContext(ctx, query, workflowID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var out []*model.Node
	for rows.Next() {
		var (
			id, wfID, name                string
			scriptID, customScriptID      sql.NullString
			inputParams                   []byte
			maxRetries, timeoutSeconds    int
		)
		if err := rows.Scan(&id, &wfID, &name, &scriptID, &customScriptID, &inputParams, &maxRetries, &timeoutSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}

		var decodedParams map[string]model.ParamSpec
		if len(inputParams) > 0 {
			if err := json.Unmarshal(inputParams, &decodedParams); err != nil {
				return nil, fmt.Errorf("failed to unmarshal input_params: %w", err)
			}
		}

		node := &model.Node{
			ID: model.NodeID(id), WorkflowID: model.WorkflowID(wfID), Name: name,
			InputParams: decodedParams, MaxRetries: maxRetries, TimeoutSeconds: timeoutSeconds,
		}
		if scriptID.Valid {
			sid := model.ScriptID(scriptID.String)
			node.ScriptID = &sid
		}
		if customScriptID.Valid {
			cid := model.CustomScriptID(customScriptID.String)
			node.CustomScriptID = &cid
		}
		out = append(out, node)
	}
	return out, rows.Err()
}
