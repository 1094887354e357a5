package model

// Workflow is the read-only workflow record a launch request binds to. The
// launcher resolves it before expanding the graph, both to reject a
// nonexistent workflow_id and to reject one that belongs to a different
// workspace than the caller's (§4.1).
type Workflow struct {
	ID          WorkflowID
	WorkspaceID WorkspaceID
	Name        string
}
