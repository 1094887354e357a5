package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// fakeResourceRepo is an in-memory stand-in for repository.ResourceRepository,
// scoping every lookup by workspace the way the Postgres adapter's
// "id + organization_id" WHERE clause does (P5 cross-workspace isolation).
type fakeResourceRepo struct {
	variables   map[model.WorkspaceID]map[model.VariableID]*repository.ResolvedVariable
	credentials map[model.WorkspaceID]map[model.CredentialID]map[string]any
	databases   map[model.WorkspaceID]map[model.DatabaseID]map[string]any
	files       map[model.WorkspaceID]map[model.FileID]map[string]any
	fileContent map[model.WorkspaceID]map[model.FileID]string
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{
		variables:   map[model.WorkspaceID]map[model.VariableID]*repository.ResolvedVariable{},
		credentials: map[model.WorkspaceID]map[model.CredentialID]map[string]any{},
		databases:   map[model.WorkspaceID]map[model.DatabaseID]map[string]any{},
		files:       map[model.WorkspaceID]map[model.FileID]map[string]any{},
		fileContent: map[model.WorkspaceID]map[model.FileID]string{},
	}
}

func (f *fakeResourceRepo) GetVariable(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.VariableID) (*repository.ResolvedVariable, error) {
	v, ok := f.variables[workspaceID][id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeResourceRepo) GetCredential(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.CredentialID) (map[string]any, error) {
	v, ok := f.credentials[workspaceID][id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeResourceRepo) GetDatabaseConnection(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.DatabaseID) (map[string]any, error) {
	v, ok := f.databases[workspaceID][id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeResourceRepo) GetFileMetadata(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.FileID) (map[string]any, error) {
	v, ok := f.files[workspaceID][id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeResourceRepo) ReadFileContent(ctx context.Context, workspaceID model.WorkspaceID, id model.FileID) (string, error) {
	v, ok := f.fileContent[workspaceID][id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

var _ repository.ResourceRepository = (*fakeResourceRepo)(nil)

func newResolverForTest(resources repository.ResourceRepository, outputs repository.ExecutionOutputRepository) *ReferenceResolver {
	return NewReferenceResolver(resources, outputs)
}

func TestResolveStaticAndTriggerReferences(t *testing.T) {
	r := newResolverForTest(newFakeResourceRepo(), newFakeExecutionOutputRepo())

	got, err := r.Resolve(context.Background(), nil, ResolveContext{
		TriggerData: map[string]any{"payload": map[string]any{"email": "a@b.com"}},
	}, map[string]model.ParamSpec{
		"greeting": {Type: "string", Value: "hello"},
		"email":    {Type: "string", Value: "${trigger:payload.email}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", got["greeting"])
	assert.Equal(t, "a@b.com", got["email"])
}

func TestResolveNodeReferenceReadsResultData(t *testing.T) {
	outputs := newFakeExecutionOutputRepo()
	outputs.byExecution["exe-1"] = []*model.ExecutionOutput{
		{ID: "out-1", ExecutionID: "exe-1", NodeID: "n1", Status: model.ExecutionOutputSuccess,
			ResultData: map[string]any{"items": []any{map[string]any{"name": "first"}}}},
	}
	r := newResolverForTest(newFakeResourceRepo(), outputs)

	got, err := r.Resolve(context.Background(), nil, ResolveContext{ExecutionID: "exe-1"}, map[string]model.ParamSpec{
		"name": {Type: "string", Value: "${node:n1.items[0].name}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "first", got["name"])
}

func TestResolveNodeReferenceMissingOutputIsResourceNotFound(t *testing.T) {
	r := newResolverForTest(newFakeResourceRepo(), newFakeExecutionOutputRepo())

	_, err := r.Resolve(context.Background(), nil, ResolveContext{ExecutionID: "exe-1"}, map[string]model.ParamSpec{
		"name": {Type: "string", Value: "${node:missing.name}"},
	})
	assert.Error(t, err)
}

func TestResolveVariableReferenceInWorkspaceSucceeds(t *testing.T) {
	resources := newFakeResourceRepo()
	resources.variables["ws-1"] = map[model.VariableID]*repository.ResolvedVariable{
		"var-1": {Value: "secret-value", IsSecret: true},
	}
	r := newResolverForTest(resources, newFakeExecutionOutputRepo())

	got, err := r.Resolve(context.Background(), nil, ResolveContext{WorkspaceID: "ws-1"}, map[string]model.ParamSpec{
		"token": {Type: "string", Value: "${value:var-1}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "secret-value", got["token"])
}

func TestResolveVariableReferenceFromOtherWorkspaceIsInvalidInput(t *testing.T) {
	resources := newFakeResourceRepo()
	resources.variables["ws-owner"] = map[model.VariableID]*repository.ResolvedVariable{
		"var-1": {Value: "secret-value"},
	}
	r := newResolverForTest(resources, newFakeExecutionOutputRepo())

	_, err := r.Resolve(context.Background(), nil, ResolveContext{WorkspaceID: "ws-attacker"}, map[string]model.ParamSpec{
		"token": {Type: "string", Value: "${value:var-1}"},
	})
	require.Error(t, err)

	domainErr, ok := err.(*model.Error)
	require.True(t, ok, "expected a *model.Error, got %T", err)
	assert.Equal(t, model.ErrorCodeInvalidInput, domainErr.Code)
}

func TestResolveCredentialReferenceWalksPath(t *testing.T) {
	resources := newFakeResourceRepo()
	resources.credentials["ws-1"] = map[model.CredentialID]map[string]any{
		"cred-1": {"api_key": "k-123"},
	}
	r := newResolverForTest(resources, newFakeExecutionOutputRepo())

	got, err := r.Resolve(context.Background(), nil, ResolveContext{WorkspaceID: "ws-1"}, map[string]model.ParamSpec{
		"key": {Type: "string", Value: "${credential:cred-1.api_key}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "k-123", got["key"])
}

func TestResolveFileContentReference(t *testing.T) {
	resources := newFakeResourceRepo()
	resources.fileContent["ws-1"] = map[model.FileID]string{"file-1": "line one"}
	r := newResolverForTest(resources, newFakeExecutionOutputRepo())

	got, err := r.Resolve(context.Background(), nil, ResolveContext{WorkspaceID: "ws-1"}, map[string]model.ParamSpec{
		"body": {Type: "string", Value: "${file:file-1.content}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "line one", got["body"])
}

func TestResolveFileMetadataReference(t *testing.T) {
	resources := newFakeResourceRepo()
	resources.files["ws-1"] = map[model.FileID]map[string]any{"file-1": {"size_bytes": float64(42)}}
	r := newResolverForTest(resources, newFakeExecutionOutputRepo())

	got, err := r.Resolve(context.Background(), nil, ResolveContext{WorkspaceID: "ws-1"}, map[string]model.ParamSpec{
		"size": {Type: "int", Value: "${file:file-1.size_bytes}"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got["size"])
}

func TestResolveUsesDefaultValueWhenValueIsNil(t *testing.T) {
	r := newResolverForTest(newFakeResourceRepo(), newFakeExecutionOutputRepo())

	got, err := r.Resolve(context.Background(), nil, ResolveContext{}, map[string]model.ParamSpec{
		"retries": {Type: "int", Value: nil, DefaultValue: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got["retries"])
}
