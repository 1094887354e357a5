package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// CustomScriptRepository implements repository.CustomScriptRepository
// against workspace-scoped custom executables.
type CustomScriptRepository struct{}

// NewCustomScriptRepository builds a stateless custom script repository.
func NewCustomScriptRepository() repository.CustomScriptRepository {
	return &CustomScriptRepository{}
}

func (r *CustomScriptRepository) GetByIDs(ctx context.Context, ex database.Executor, ids []model.CustomScriptID) (map[model.CustomScriptID]*model.CustomScript, error) {
	out := make(map[model.CustomScriptID]*model.CustomScript, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id.String()
	}

	query := fmt.Sprintf(`SELECT id, workspace_id, file_path, input_schema, output_schema FROM custom_scripts WHERE id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom scripts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, workspaceID, filePath string
		var inputSchema, outputSchema []byte
		if err := rows.Scan(&id, &workspaceID, &filePath, &inputSchema, &outputSchema); err != nil {
			return nil, fmt.Errorf("failed to scan custom script: %w", err)
		}

		var decodedInput, decodedOutput map[string]any
		if len(inputSchema) > 0 {
			if err := json.Unmarshal(inputSchema, &decodedInput); err != nil {
				return nil, fmt.Errorf("failed to unmarshal input_schema: %w", err)
			}
		}
		if len(outputSchema) > 0 {
			if err := json.Unmarshal(outputSchema, &decodedOutput); err != nil {
				return nil, fmt.Errorf("failed to unmarshal output_schema: %w", err)
			}
		}

		scriptID := model.CustomScriptID(id)
		out[scriptID] = &model.CustomScript{
			ID: scriptID, WorkspaceID: model.WorkspaceID(workspaceID),
			FilePath: filePath, InputSchema: decodedInput, OutputSchema: decodedOutput,
		}
	}
	return out, rows.Err()
}
