package model

// Node is a unit of work in a workflow, bound to exactly one executable
// (a global Script or a workspace-scoped CustomScript) and a declared
// parameter schema. Nodes are read-only from the engine's perspective —
// they are authored by the workflow editor, not by the execution core.
type Node struct {
	ID             NodeID
	WorkflowID     WorkflowID
	Name           string
	ScriptID       *ScriptID
	CustomScriptID *CustomScriptID
	InputParams    map[string]ParamSpec
	MaxRetries     int
	TimeoutSeconds int
}

// ScriptPath resolves which executable path this node is bound to. Exactly
// one of ScriptID/CustomScriptID is set per the data model invariant.
func (n Node) ScriptPath(scripts map[ScriptID]*Script, customScripts map[CustomScriptID]*CustomScript) (string, bool) {
	if n.ScriptID != nil {
		if s, ok := scripts[*n.ScriptID]; ok {
			return s.FilePath, true
		}
		return "", false
	}
	if n.CustomScriptID != nil {
		if s, ok := customScripts[*n.CustomScriptID]; ok {
			return s.FilePath, true
		}
		return "", false
	}
	return "", false
}

// ParamSpec is a node's declared parameter: its expected type, a literal or
// reference-token value, whether it is required, and a default fallback.
type ParamSpec struct {
	Type         string `json:"type"`
	Value        any    `json:"value"`
	Required     bool   `json:"required"`
	DefaultValue any    `json:"default_value,omitempty"`
}

// Edge is a directed precedence from one node to another within a
// workflow. Edges form a DAG; self-loops and duplicates are forbidden by
// the workflow editor, never by the execution core.
type Edge struct {
	ID         EdgeID
	WorkflowID WorkflowID
	FromNodeID NodeID
	ToNodeID   NodeID
}

// Script is a globally shared executable, addressable by every workspace.
type Script struct {
	ID           ScriptID
	FilePath     string
	InputSchema  map[string]any
	OutputSchema map[string]any
}

// CustomScript is a workspace-scoped executable, interchangeable with
// Script anywhere a node binds an executable.
type CustomScript struct {
	ID           CustomScriptID
	WorkspaceID  WorkspaceID
	FilePath     string
	InputSchema  map[string]any
	OutputSchema map[string]any
}
