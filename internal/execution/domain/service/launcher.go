package service

import (
	"context"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// defaultPriority is assigned to every launched node; a workflow has no
// per-node priority concept of its own, so all of a single execution's
// nodes compete on equal footing and rely on wait_factor for fairness.
const defaultPriority = 0

// Launcher expands a workflow definition into one Execution plus its full
// set of pending ExecutionInput rows (§4.1), computing each node's initial
// dependency_count from the workflow's edges.
type Launcher struct {
	executions    repository.ExecutionRepository
	inputs        repository.ExecutionInputRepository
	workflows     repository.WorkflowRepository
	triggers      repository.TriggerRepository
	nodes         repository.NodeRepository
	edges         repository.EdgeRepository
	scripts       repository.ScriptRepository
	customScripts repository.CustomScriptRepository
}

// NewLauncher wires the repositories the launcher needs to expand a
// workflow graph into an execution.
func NewLauncher(
	executions repository.ExecutionRepository,
	inputs repository.ExecutionInputRepository,
	workflows repository.WorkflowRepository,
	triggers repository.TriggerRepository,
	nodes repository.NodeRepository,
	edges repository.EdgeRepository,
	scripts repository.ScriptRepository,
	customScripts repository.CustomScriptRepository,
) *Launcher {
	return &Launcher{
		executions:    executions,
		inputs:        inputs,
		workflows:     workflows,
		triggers:      triggers,
		nodes:         nodes,
		edges:         edges,
		scripts:       scripts,
		customScripts: customScripts,
	}
}

// Start resolves workflowID (failing distinctly on "not found" and "not in
// this workspace"), validates trigger_data against the named trigger's
// input_mapping if triggerID is set, then loads the graph and writes a new
// Execution plus one ExecutionInput per node. A workflow with no nodes
// completes immediately with empty results rather than erroring (§8). Every
// step runs against the single Executor the caller passes in, so callers
// typically invoke this inside a database.DB.Transaction.
func (l *Launcher) Start(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, workflowID model.WorkflowID, triggerID *model.TriggerID, triggerData map[string]any) (*model.Execution, error) {
	workflow, err := l.workflows.GetByID(ctx, ex, workflowID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, model.ResourceNotFound("workflow", string(workflowID))
		}
		return nil, model.DatabaseQueryError("get_workflow", err)
	}
	if workflow.WorkspaceID != workspaceID {
		return nil, model.BusinessRuleViolation("workflow_in_workspace", "workflow does not belong to this workspace")
	}

	if triggerID != nil {
		validated, err := l.validateTriggerInput(ctx, ex, workspaceID, *triggerID, triggerData)
		if err != nil {
			return nil, err
		}
		triggerData = validated
	}

	nodes, err := l.nodes.GetByWorkflowID(ctx, ex, workflowID)
	if err != nil {
		return nil, model.DatabaseQueryError("get_nodes", err)
	}

	if len(nodes) == 0 {
		execution := model.NewExecution(workspaceID, workflowID, triggerID, triggerData)
		if err := l.executions.Save(ctx, ex, execution); err != nil {
			return nil, model.DatabaseQueryError("save_execution", err)
		}
		if err := execution.Run(); err != nil {
			return nil, model.BusinessRuleViolation("execution_run", err.Error())
		}
		if err := execution.Finalize(model.ExecutionStatusCompleted, map[model.NodeID]model.NodeResult{}); err != nil {
			return nil, model.BusinessRuleViolation("execution_finalize", err.Error())
		}
		if err := l.executions.Update(ctx, ex, execution); err != nil {
			return nil, model.DatabaseQueryError("update_execution", err)
		}
		return execution, nil
	}

	edges, err := l.edges.GetByWorkflowID(ctx, ex, workflowID)
	if err != nil {
		return nil, model.DatabaseQueryError("get_edges", err)
	}

	scriptIDs, customScriptIDs := l.collectScriptIDs(nodes)
	scripts, err := l.scripts.GetByIDs(ctx, ex, scriptIDs)
	if err != nil {
		return nil, model.DatabaseQueryError("get_scripts", err)
	}
	customScripts, err := l.customScripts.GetByIDs(ctx, ex, customScriptIDs)
	if err != nil {
		return nil, model.DatabaseQueryError("get_custom_scripts", err)
	}

	dependencyCount := make(map[model.NodeID]int, len(nodes))
	for _, n := range nodes {
		dependencyCount[n.ID] = 0
	}
	for _, e := range edges {
		dependencyCount[e.ToNodeID]++
	}

	execution := model.NewExecution(workspaceID, workflowID, triggerID, triggerData)
	if err := l.executions.Save(ctx, ex, execution); err != nil {
		return nil, model.DatabaseQueryError("save_execution", err)
	}

	inputs := make([]*model.ExecutionInput, 0, len(nodes))
	for _, n := range nodes {
		scriptPath, ok := n.ScriptPath(scripts, customScripts)
		if !ok {
			return nil, model.ResourceNotFound("script", string(n.ID))
		}
		params, err := validateRequiredParams(n.ID, n.InputParams)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, &model.ExecutionInput{
			ID:              model.NewExecutionInputID(),
			ExecutionID:     execution.ID(),
			WorkspaceID:     workspaceID,
			WorkflowID:      workflowID,
			NodeID:          n.ID,
			NodeName:        n.Name,
			ScriptPath:      scriptPath,
			Params:          params,
			DependencyCount: dependencyCount[n.ID],
			WaitFactor:      0,
			Priority:        defaultPriority,
			MaxRetries:      n.MaxRetries,
			TimeoutSeconds:  n.TimeoutSeconds,
		})
	}

	if err := l.inputs.InsertBatch(ctx, ex, inputs); err != nil {
		return nil, model.DatabaseQueryError("insert_execution_inputs", err)
	}

	if err := execution.Run(); err != nil {
		return nil, model.BusinessRuleViolation("execution_run", err.Error())
	}
	if err := l.executions.Update(ctx, ex, execution); err != nil {
		return nil, model.DatabaseQueryError("update_execution", err)
	}

	return execution, nil
}

// validateTriggerInput loads triggerID, checks it belongs to workspaceID and
// names workflowID is left to the caller (a trigger always launches its own
// workflow), then walks its input_mapping: a required field with neither a
// supplied value nor a default fails with INVALID_INPUT, and every supplied
// value is type-coerced through TypeConverter. It returns the validated,
// possibly-defaulted trigger data the execution should record.
func (l *Launcher) validateTriggerInput(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, triggerID model.TriggerID, triggerData map[string]any) (map[string]any, error) {
	trigger, err := l.triggers.GetByID(ctx, ex, triggerID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, model.ResourceNotFound("trigger", string(triggerID))
		}
		return nil, model.DatabaseQueryError("get_trigger", err)
	}
	if trigger.WorkspaceID != workspaceID {
		return nil, model.InvalidInput("trigger_id", "trigger does not belong to this workspace")
	}

	converter := TypeConverter{}
	validated := make(map[string]any, len(triggerData))
	for k, v := range triggerData {
		validated[k] = v
	}

	for fieldName, field := range trigger.InputMapping {
		value, present := validated[fieldName]
		if !present {
			if field.DefaultValue != nil {
				validated[fieldName] = field.DefaultValue
				continue
			}
			if field.Required {
				return nil, model.InvalidInput(fieldName, "required trigger input field is missing")
			}
			continue
		}
		converted, err := converter.Convert(fieldName, value, field.Type)
		if err != nil {
			return nil, err
		}
		validated[fieldName] = converted
	}

	return validated, nil
}

// validateRequiredParams copies params, failing with a distinct
// BUSINESS_RULE_VIOLATION when a required parameter has neither a literal
// value nor a default (§4.1 step 6).
func validateRequiredParams(nodeID model.NodeID, params map[string]model.ParamSpec) (map[string]model.ParamSpec, error) {
	out := make(map[string]model.ParamSpec, len(params))
	for name, spec := range params {
		if spec.Required && spec.Value == nil && spec.DefaultValue == nil {
			return nil, model.BusinessRuleViolation("required_parameter_missing",
				"node "+string(nodeID)+" is missing required parameter "+name)
		}
		out[name] = spec
	}
	return out, nil
}

func (l *Launcher) collectScriptIDs(nodes []*model.Node) ([]model.ScriptID, []model.CustomScriptID) {
	var scriptIDs []model.ScriptID
	var customScriptIDs []model.CustomScriptID
	for _, n := range nodes {
		if n.ScriptID != nil {
			scriptIDs = append(scriptIDs, *n.ScriptID)
		}
		if n.CustomScriptID != nil {
			customScriptIDs = append(customScriptIDs, *n.CustomScriptID)
		}
	}
	return scriptIDs, customScriptIDs
}
