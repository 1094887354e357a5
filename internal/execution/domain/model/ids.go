package model

import (
	"strings"

	"github.com/google/uuid"
)

// newID builds an opaque, typed-prefixed identifier, e.g. "EXE-3c9e...".
// All core identifiers follow this shape per the data model.
func newID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:20]
}

// ExecutionID uniquely identifies one run of a workflow.
type ExecutionID string

// NewExecutionID creates a new execution identifier.
func NewExecutionID() ExecutionID { return ExecutionID(newID("EXE")) }

func (id ExecutionID) String() string { return string(id) }

// ExecutionInputID uniquely identifies a pending per-node work item.
type ExecutionInputID string

// NewExecutionInputID creates a new execution input identifier.
func NewExecutionInputID() ExecutionInputID { return ExecutionInputID(newID("EXI")) }

func (id ExecutionInputID) String() string { return string(id) }

// ExecutionOutputID uniquely identifies a completed per-node work item.
type ExecutionOutputID string

// NewExecutionOutputID creates a new execution output identifier.
func NewExecutionOutputID() ExecutionOutputID { return ExecutionOutputID(newID("EXO")) }

func (id ExecutionOutputID) String() string { return string(id) }

// NodeID identifies a node within a workflow graph.
type NodeID string

func (id NodeID) String() string { return string(id) }

// EdgeID identifies a directed precedence between two nodes.
type EdgeID string

func (id EdgeID) String() string { return string(id) }

// WorkflowID identifies the read-only workflow graph an execution runs.
type WorkflowID string

func (id WorkflowID) String() string { return string(id) }

// WorkspaceID identifies the tenant boundary executions and resources live in.
type WorkspaceID string

func (id WorkspaceID) String() string { return string(id) }

// ScriptID identifies a globally shared executable script.
type ScriptID string

func (id ScriptID) String() string { return string(id) }

// CustomScriptID identifies a workspace-scoped executable script.
type CustomScriptID string

func (id CustomScriptID) String() string { return string(id) }

// TriggerID identifies the trigger that started an execution, if any.
type TriggerID string

func (id TriggerID) String() string { return string(id) }

// CredentialID identifies a stored credential record.
type CredentialID string

func (id CredentialID) String() string { return string(id) }

// VariableID identifies a workspace-scoped variable record.
type VariableID string

func (id VariableID) String() string { return string(id) }

// DatabaseID identifies a stored database-connection record.
type DatabaseID string

func (id DatabaseID) String() string { return string(id) }

// FileID identifies a stored file record.
type FileID string

func (id FileID) String() string { return string(id) }
