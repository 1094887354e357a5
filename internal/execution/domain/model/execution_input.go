package model

// ExecutionInput is one row per not-yet-dispatched node of a running
// execution (§3). Rows are created eagerly by the launcher for every node
// and deleted the moment their payload is successfully submitted to the
// engine, or collected into Execution.results at finalization.
type ExecutionInput struct {
	ID               ExecutionInputID
	ExecutionID      ExecutionID
	WorkspaceID      WorkspaceID
	WorkflowID       WorkflowID
	NodeID           NodeID
	NodeName         string
	ScriptPath       string
	Params           map[string]ParamSpec
	DependencyCount  int
	WaitFactor       int
	Priority         int
	MaxRetries       int
	TimeoutSeconds   int
}

// Ready reports whether this input has no unresolved predecessors and can
// be selected by the input handler.
func (ei ExecutionInput) Ready() bool { return ei.DependencyCount == 0 }
