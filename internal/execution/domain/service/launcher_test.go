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

type fakeNodeRepo struct {
	byWorkflow map[model.WorkflowID][]*model.Node
}

func (f *fakeNodeRepo) GetByWorkflowID(ctx context.Context, ex database.Executor, workflowID model.WorkflowID) ([]*model.Node, error) {
	return f.byWorkflow[workflowID], nil
}

var _ repository.NodeRepository = (*fakeNodeRepo)(nil)

type fakeScriptRepo struct {
	byID map[model.ScriptID]*model.Script
}

func (f *fakeScriptRepo) GetByIDs(ctx context.Context, ex database.Executor, ids []model.ScriptID) (map[model.ScriptID]*model.Script, error) {
	out := make(map[model.ScriptID]*model.Script, len(ids))
	for _, id := range ids {
		if s, ok := f.byID[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

var _ repository.ScriptRepository = (*fakeScriptRepo)(nil)

type fakeCustomScriptRepo struct {
	byID map[model.CustomScriptID]*model.CustomScript
}

func (f *fakeCustomScriptRepo) GetByIDs(ctx context.Context, ex database.Executor, ids []model.CustomScriptID) (map[model.CustomScriptID]*model.CustomScript, error) {
	out := make(map[model.CustomScriptID]*model.CustomScript, len(ids))
	for _, id := range ids {
		if s, ok := f.byID[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

var _ repository.CustomScriptRepository = (*fakeCustomScriptRepo)(nil)

// fakeWorkflowRepo is an in-memory stand-in for repository.WorkflowRepository.
type fakeWorkflowRepo struct {
	byID map[model.WorkflowID]*model.Workflow
}

func (f *fakeWorkflowRepo) GetByID(ctx context.Context, ex database.Executor, id model.WorkflowID) (*model.Workflow, error) {
	if wf, ok := f.byID[id]; ok {
		return wf, nil
	}
	return nil, repository.ErrNotFound
}

var _ repository.WorkflowRepository = (*fakeWorkflowRepo)(nil)

// fakeTriggerRepo is an in-memory stand-in for repository.TriggerRepository.
type fakeTriggerRepo struct {
	byID map[model.TriggerID]*model.Trigger
}

func (f *fakeTriggerRepo) GetByID(ctx context.Context, ex database.Executor, id model.TriggerID) (*model.Trigger, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, repository.ErrNotFound
}

var _ repository.TriggerRepository = (*fakeTriggerRepo)(nil)

// newTestLauncher wires a Launcher against a workflow "wf-1" owned by
// workspace "ws-1" and no registered triggers; individual tests override
// the workflow/trigger fakes directly when they need to exercise those
// paths.
func newTestLauncher(nodes []*model.Node, edges []*model.Edge, scripts map[model.ScriptID]*model.Script, customScripts map[model.CustomScriptID]*model.CustomScript) (*Launcher, *fakeExecutionRepo, *fakeExecutionInputRepo) {
	executions := &fakeExecutionRepo{}
	inputs := &fakeExecutionInputRepo{}
	workflowRepo := &fakeWorkflowRepo{byID: map[model.WorkflowID]*model.Workflow{
		"wf-1": {ID: "wf-1", WorkspaceID: "ws-1", Name: "test workflow"},
	}}
	triggerRepo := &fakeTriggerRepo{byID: map[model.TriggerID]*model.Trigger{}}
	nodeRepo := &fakeNodeRepo{byWorkflow: map[model.WorkflowID][]*model.Node{"wf-1": nodes}}
	edgeRepo := &fakeEdgeRepo{outgoing: map[model.NodeID][]*model.Edge{}}
	for _, e := range edges {
		edgeRepo.outgoing[e.FromNodeID] = append(edgeRepo.outgoing[e.FromNodeID], e)
	}
	launcher := NewLauncher(executions, inputs,
		workflowRepo, triggerRepo,
		nodeRepo, edgeRepo,
		&fakeScriptRepo{byID: scripts}, &fakeCustomScriptRepo{byID: customScripts})
	return launcher, executions, inputs
}

func TestLauncherStartCompletesImmediatelyOnEmptyGraph(t *testing.T) {
	launcher, executions, inputs := newTestLauncher(nil, nil, nil, nil)

	execution, err := launcher.Start(context.Background(), nil, "ws-1", "wf-1", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, execution)
	assert.Equal(t, model.ExecutionStatusCompleted, execution.Status())
	assert.NotNil(t, execution.EndedAt())
	assert.Empty(t, execution.Results())
	assert.Same(t, execution, executions.execution)
	assert.Empty(t, inputs.inserted)
}

func TestLauncherStartFailsWhenWorkflowNotFound(t *testing.T) {
	launcher, _, _ := newTestLauncher(nil, nil, nil, nil)

	_, err := launcher.Start(context.Background(), nil, "ws-1", "wf-missing", nil, nil)
	require.Error(t, err)
	var domainErr *model.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrorCodeResourceNotFound, domainErr.Code)
}

func TestLauncherStartFailsWhenWorkflowNotInWorkspace(t *testing.T) {
	launcher, _, _ := newTestLauncher(nil, nil, nil, nil)

	_, err := launcher.Start(context.Background(), nil, "ws-other", "wf-1", nil, nil)
	require.Error(t, err)
	var domainErr *model.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrorCodeBusinessRuleViolation, domainErr.Code)
}

func TestLauncherStartCreatesOneInputPerNodeWithDependencyCounts(t *testing.T) {
	scriptID := model.ScriptID("scr-1")
	nodes := []*model.Node{
		{ID: "n1", WorkflowID: "wf-1", Name: "fetch", ScriptID: &scriptID},
		{ID: "n2", WorkflowID: "wf-1", Name: "transform", ScriptID: &scriptID},
		{ID: "n3", WorkflowID: "wf-1", Name: "store", ScriptID: &scriptID},
	}
	edges := []*model.Edge{
		{ID: "e1", WorkflowID: "wf-1", FromNodeID: "n1", ToNodeID: "n3"},
		{ID: "e2", WorkflowID: "wf-1", FromNodeID: "n2", ToNodeID: "n3"},
	}
	scripts := map[model.ScriptID]*model.Script{scriptID: {ID: scriptID, FilePath: "/scripts/run.py"}}

	launcher, executions, inputs := newTestLauncher(nodes, edges, scripts, nil)

	execution, err := launcher.Start(context.Background(), nil, "ws-1", "wf-1", nil, map[string]any{"k": "v"})
	require.NoError(t, err)
	require.NotNil(t, executions.execution)
	assert.Equal(t, model.ExecutionStatusRunning, execution.Status())

	require.Len(t, inputs.inserted, 3)
	dependencyCountByNode := make(map[model.NodeID]int, 3)
	for _, in := range inputs.inserted {
		dependencyCountByNode[in.NodeID] = in.DependencyCount
		assert.Equal(t, execution.ID(), in.ExecutionID)
		assert.Equal(t, "/scripts/run.py", in.ScriptPath)
	}
	assert.Equal(t, 0, dependencyCountByNode["n1"])
	assert.Equal(t, 0, dependencyCountByNode["n2"])
	assert.Equal(t, 2, dependencyCountByNode["n3"])
}

func TestLauncherStartFailsWhenNodeHasNoResolvableScript(t *testing.T) {
	scriptID := model.ScriptID("missing-script")
	nodes := []*model.Node{
		{ID: "n1", WorkflowID: "wf-1", Name: "fetch", ScriptID: &scriptID},
	}
	launcher, _, _ := newTestLauncher(nodes, nil, map[model.ScriptID]*model.Script{}, nil)

	_, err := launcher.Start(context.Background(), nil, "ws-1", "wf-1", nil, nil)
	assert.Error(t, err)
}

func TestLauncherStartResolvesCustomScript(t *testing.T) {
	customScriptID := model.CustomScriptID("cscr-1")
	nodes := []*model.Node{
		{ID: "n1", WorkflowID: "wf-1", Name: "custom", CustomScriptID: &customScriptID},
	}
	customScripts := map[model.CustomScriptID]*model.CustomScript{
		customScriptID: {ID: customScriptID, WorkspaceID: "ws-1", FilePath: "/custom/run.py"},
	}
	launcher, executions, _ := newTestLauncher(nodes, nil, nil, customScripts)

	execution, err := launcher.Start(context.Background(), nil, "ws-1", "wf-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, execution.ID(), executions.execution.ID())
}

func TestLauncherStartFailsWhenRequiredParamMissing(t *testing.T) {
	scriptID := model.ScriptID("scr-1")
	nodes := []*model.Node{
		{
			ID: "n1", WorkflowID: "wf-1", Name: "fetch", ScriptID: &scriptID,
			InputParams: map[string]model.ParamSpec{
				"url": {Type: "string", Required: true},
			},
		},
	}
	scripts := map[model.ScriptID]*model.Script{scriptID: {ID: scriptID, FilePath: "/scripts/run.py"}}
	launcher, _, _ := newTestLauncher(nodes, nil, scripts, nil)

	_, err := launcher.Start(context.Background(), nil, "ws-1", "wf-1", nil, nil)
	require.Error(t, err)
	var domainErr *model.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrorCodeBusinessRuleViolation, domainErr.Code)
}

func TestLauncherStartAllowsRequiredParamSatisfiedByDefault(t *testing.T) {
	scriptID := model.ScriptID("scr-1")
	nodes := []*model.Node{
		{
			ID: "n1", WorkflowID: "wf-1", Name: "fetch", ScriptID: &scriptID,
			InputParams: map[string]model.ParamSpec{
				"url": {Type: "string", Required: true, DefaultValue: "https://example.com"},
			},
		},
	}
	scripts := map[model.ScriptID]*model.Script{scriptID: {ID: scriptID, FilePath: "/scripts/run.py"}}
	launcher, _, inputs := newTestLauncher(nodes, nil, scripts, nil)

	_, err := launcher.Start(context.Background(), nil, "ws-1", "wf-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, inputs.inserted, 1)
}

func TestLauncherStartValidatesTriggerInputMapping(t *testing.T) {
	scriptID := model.ScriptID("scr-1")
	nodes := []*model.Node{
		{ID: "n1", WorkflowID: "wf-1", Name: "fetch", ScriptID: &scriptID},
	}
	scripts := map[model.ScriptID]*model.Script{scriptID: {ID: scriptID, FilePath: "/scripts/run.py"}}
	launcher, _, _ := newTestLauncher(nodes, nil, scripts, nil)

	triggerID := model.TriggerID("trg-1")
	launcher.triggers.(*fakeTriggerRepo).byID[triggerID] = &model.Trigger{
		ID: triggerID, WorkspaceID: "ws-1", WorkflowID: "wf-1",
		InputMapping: map[string]model.TriggerInputField{
			"count": {Type: "int", Required: true},
		},
	}

	t.Run("missing required key fails", func(t *testing.T) {
		_, err := launcher.Start(context.Background(), nil, "ws-1", "wf-1", &triggerID, map[string]any{})
		require.Error(t, err)
		var domainErr *model.Error
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, model.ErrorCodeInvalidInput, domainErr.Code)
	})

	t.Run("type mismatch fails", func(t *testing.T) {
		_, err := launcher.Start(context.Background(), nil, "ws-1", "wf-1", &triggerID, map[string]any{"count": "not-a-number"})
		require.Error(t, err)
	})

	t.Run("valid input succeeds", func(t *testing.T) {
		execution, err := launcher.Start(context.Background(), nil, "ws-1", "wf-1", &triggerID, map[string]any{"count": "42"})
		require.NoError(t, err)
		assert.Equal(t, int64(42), execution.TriggerData()["count"])
	})
}

func TestLauncherStartFailsWhenTriggerNotInWorkspace(t *testing.T) {
	launcher, _, _ := newTestLauncher(nil, nil, nil, nil)

	triggerID := model.TriggerID("trg-other")
	launcher.triggers.(*fakeTriggerRepo).byID[triggerID] = &model.Trigger{
		ID: triggerID, WorkspaceID: "ws-other", WorkflowID: "wf-1",
	}

	_, err := launcher.Start(context.Background(), nil, "ws-1", "wf-1", &triggerID, nil)
	require.Error(t, err)
	var domainErr *model.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrorCodeInvalidInput, domainErr.Code)
}
