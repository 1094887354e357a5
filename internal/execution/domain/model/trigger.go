package model

// TriggerInputField is one declared entry of a trigger's input_mapping: the
// expected type for a trigger_data key, whether the key is required, and a
// default substituted when the caller omits it.
type TriggerInputField struct {
	Type         string `json:"type"`
	Required     bool   `json:"required"`
	DefaultValue any    `json:"default_value,omitempty"`
}

// Trigger declares how a workflow expects to be started: the workspace and
// workflow it is scoped to, and the input_mapping a launch's trigger_data
// must satisfy before the launcher will expand the graph (§4.1).
type Trigger struct {
	ID           TriggerID
	WorkspaceID  WorkspaceID
	WorkflowID   WorkflowID
	InputMapping map[string]TriggerInputField
}
