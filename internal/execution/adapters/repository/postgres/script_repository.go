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

// ScriptRepository implements repository.ScriptRepository against the
// globally shared script catalog.
type ScriptRepository struct{}

// NewScriptRepository builds a stateless script repository.
func NewScriptRepository() repository.ScriptRepository {
	return &ScriptRepository{}
}

func (r *ScriptRepository) GetByIDs(ctx context.Context, ex database.Executor, ids []model.ScriptID) (map[model.ScriptID]*model.Script, error) {
	out := make(map[model.ScriptID]*model.Script, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id.String()
	}

	query := fmt.Sprintf(`SELECT id, file_path, input_schema, output_schema FROM scripts WHERE id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scripts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, filePath string
		var inputSchema, outputSchema []byte
		if err := rows.Scan(&id, &filePath, &inputSchema, &outputSchema); err != nil {
			return nil, fmt.Errorf("failed to scan script: %w", err)
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

		scriptID := model.ScriptID(id)
		out[scriptID] = &model.Script{ID: scriptID, FilePath: filePath, InputSchema: decodedInput, OutputSchema: decodedOutput}
	}
	return out, rows.Err()
}
