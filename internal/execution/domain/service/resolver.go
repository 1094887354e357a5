package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// resolvedParam is one param grouped by its reference kind, ready for
// per-kind batch resolution.
type resolvedParam struct {
	paramName    string
	expectedType string
	ref          model.Reference // Kind == static carries the literal in ref.Path
}

// ReferenceResolver is the visitor dispatching §4.3's seven reference
// kinds to their backing stores, then coercing the extracted value to the
// parameter's declared type. It is pure except for the Credential/
// Variable/File/Database lookups, which are effectful (decryption, I/O).
type ReferenceResolver struct {
	resources repository.ResourceRepository
	outputs   repository.ExecutionOutputRepository
	converter TypeConverter
}

// NewReferenceResolver builds a resolver over the given resource and
// output repositories.
func NewReferenceResolver(resources repository.ResourceRepository, outputs repository.ExecutionOutputRepository) *ReferenceResolver {
	return &ReferenceResolver{resources: resources, outputs: outputs}
}

// ResolveContext carries everything a single node's parameter resolution
// needs beyond the node's own declared params.
type ResolveContext struct {
	WorkspaceID model.WorkspaceID
	ExecutionID model.ExecutionID
	TriggerData map[string]any
}

// Resolve resolves every declared param of a node into a flat
// name -> type-coerced value map, grouping by reference kind first (§4.3
// "Grouping + batching discipline") so that a future batched backing store
// can satisfy an entire kind in one round trip.
func (r *ReferenceResolver) Resolve(ctx context.Context, ex database.Executor, rctx ResolveContext, params map[string]model.ParamSpec) (map[string]any, error) {
	groups := make(map[model.ReferenceKind][]resolvedParam)

	for name, spec := range params {
		value := spec.Value
		if spec.Value == nil && spec.DefaultValue != nil {
			value = spec.DefaultValue
		}
		if model.IsReference(value) {
			token := value.(string)
			ref, err := model.ParseReference(token)
			if err != nil {
				return nil, err
			}
			groups[ref.Kind] = append(groups[ref.Kind], resolvedParam{paramName: name, expectedType: spec.Type, ref: ref})
		} else {
			groups[model.ReferenceStatic] = append(groups[model.ReferenceStatic], resolvedParam{
				paramName:    name,
				expectedType: spec.Type,
				ref:          model.Reference{Kind: model.ReferenceStatic, Path: fmt.Sprintf("%v", value)},
			})
			if value == nil {
				// Preserve nil-ness rather than stringifying it; handled below.
				groups[model.ReferenceStatic][len(groups[model.ReferenceStatic])-1].ref = model.Reference{Kind: model.ReferenceStatic}
			}
		}
	}

	resolved := make(map[string]any, len(params))

	for kind, items := range groups {
		for _, item := range items {
			raw, err := r.resolveOne(ctx, ex, rctx, kind, item)
			if err != nil {
				return nil, err
			}
			converted, err := r.converter.Convert(item.paramName, raw, item.expectedType)
			if err != nil {
				return nil, err
			}
			resolved[item.paramName] = converted
		}
	}

	return resolved, nil
}

func (r *ReferenceResolver) resolveOne(ctx context.Context, ex database.Executor, rctx ResolveContext, kind model.ReferenceKind, item resolvedParam) (any, error) {
	switch kind {
	case model.ReferenceStatic:
		return item.ref.Path, nil

	case model.ReferenceTrigger:
		return getValueFromContext(model.SplitPath(item.ref.Path), rctx.TriggerData)

	case model.ReferenceNode:
		output, err := r.outputs.GetByExecutionAndNode(ctx, ex, rctx.ExecutionID, model.NodeID(item.ref.ID))
		if err != nil {
			return nil, model.ResourceNotFound("execution_output", item.ref.ID)
		}
		var data any = output.ResultData
		return getValueFromContext(model.SplitPath(item.ref.Path), data)

	case model.ReferenceValue:
		v, err := r.resources.GetVariable(ctx, ex, rctx.WorkspaceID, model.VariableID(item.ref.ID))
		if err != nil {
			return nil, model.InvalidInput(item.paramName, fmt.Sprintf("variable %q not accessible from this workspace", item.ref.ID))
		}
		return v.Value, nil

	case model.ReferenceCredential:
		payload, err := r.resources.GetCredential(ctx, ex, rctx.WorkspaceID, model.CredentialID(item.ref.ID))
		if err != nil {
			return nil, model.InvalidInput(item.paramName, fmt.Sprintf("credential %q not accessible from this workspace", item.ref.ID))
		}
		return getValueFromContext(model.SplitPath(item.ref.Path), any(payload))

	case model.ReferenceDatabase:
		payload, err := r.resources.GetDatabaseConnection(ctx, ex, rctx.WorkspaceID, model.DatabaseID(item.ref.ID))
		if err != nil {
			return nil, model.InvalidInput(item.paramName, fmt.Sprintf("database connection %q not accessible from this workspace", item.ref.ID))
		}
		return getValueFromContext(model.SplitPath(item.ref.Path), any(payload))

	case model.ReferenceFile:
		if item.ref.Path == "content" {
			content, err := r.resources.ReadFileContent(ctx, rctx.WorkspaceID, model.FileID(item.ref.ID))
			if err != nil {
				return nil, model.InvalidInput(item.paramName, fmt.Sprintf("file %q not accessible from this workspace", item.ref.ID))
			}
			return content, nil
		}
		meta, err := r.resources.GetFileMetadata(ctx, ex, rctx.WorkspaceID, model.FileID(item.ref.ID))
		if err != nil {
			return nil, model.InvalidInput(item.paramName, fmt.Sprintf("file %q not accessible from this workspace", item.ref.ID))
		}
		return getValueFromContext(model.SplitPath(item.ref.Path), any(meta))

	default:
		return nil, model.InvalidInput(item.paramName, fmt.Sprintf("unknown reference kind %q", kind))
	}
}

// getValueFromContext walks a tokenized path (dotted keys plus [i] indices)
// through a nested map/slice value. An empty path returns context itself.
func getValueFromContext(pathParts []string, context any) (any, error) {
	current := context
	for _, part := range pathParts {
		if strings.HasPrefix(part, "[") && strings.HasSuffix(part, "]") {
			idxStr := strings.TrimSuffix(strings.TrimPrefix(part, "["), "]")
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, model.InvalidInput("path", fmt.Sprintf("invalid array index %q", part))
			}
			arr, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, model.InvalidInput("path", fmt.Sprintf("index %d out of range", idx))
			}
			current = arr[idx]
			continue
		}

		switch m := current.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, model.InvalidInput("path", fmt.Sprintf("key %q not found", part))
			}
			current = v
		default:
			return nil, model.InvalidInput("path", fmt.Sprintf("cannot index into non-object at %q", part))
		}
	}
	return current, nil
}
