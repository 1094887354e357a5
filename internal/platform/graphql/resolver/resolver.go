package resolver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Resolver is the root resolver for GraphQL
type Resolver struct {
	// Service dependencies would be injected here
}

// NewResolver creates a new GraphQL resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// Query resolvers
type QueryResolver struct {
	*Resolver
}

func (r *Resolver) Query() *QueryResolver {
	return &QueryResolver{r}
}

// Me returns the current authenticated user
func (q *QueryResolver) Me(ctx context.Context) (*User, error) {
	userID := ctx.Value("userID")
	if userID == nil {
		return nil, nil
	}

	return &User{
		ID:        userID.(string),
		Email:     "user@example.com",
		FirstName: "Test",
		LastName:  "User",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// Workflow returns a workflow by ID
func (q *QueryResolver) Workflow(ctx context.Context, id string) (*Workflow, error) {
	desc := "A sample workflow"
	return &Workflow{
		ID:          id,
		Name:        "Sample Workflow",
		Description: &desc,
		Status:      WorkflowStatusDraft,
		Version:     1,
		Nodes:       []Node{},
		Connections: []Connection{},
		Tags:        []string{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}, nil
}

// Workflows returns a paginated list of workflows
func (q *QueryResolver) Workflows(ctx context.Context, filter *WorkflowFilter, pagination *PaginationInput) (*WorkflowConnection, error) {
	desc1 := "First workflow"
	desc2 := "Second workflow"
	workflows := []*Workflow{
		{
			ID:          uuid.New().String(),
			Name:        "Workflow 1",
			Description: &desc1,
			Status:      WorkflowStatusActive,
			Version:     1,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		},
		{
			ID:          uuid.New().String(),
			Name:        "Workflow 2",
			Description: &desc2,
			Status:      WorkflowStatusDraft,
			Version:     1,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		},
	}

	edges := make([]*WorkflowEdge, len(workflows))
	for i, wf := range workflows {
		edges[i] = &WorkflowEdge{
			Node:   wf,
			Cursor: wf.ID,
		}
	}

	return &WorkflowConnection{
		Edges: edges,
		PageInfo: &PageInfo{
			HasNextPage:     false,
			HasPreviousPage: false,
		},
		TotalCount: len(workflows),
	}, nil
}

// Execution returns an execution by ID
func (q *QueryResolver) Execution(ctx context.Context, id string) (*Execution, error) {
	return &Execution{
		ID:          id,
		Status:      ExecutionStatusCompleted,
		StartedAt:   time.Now().Add(-time.Hour),
		CompletedAt: ptrTime(time.Now()),
		Duration:    ptrInt(3600),
	}, nil
}

// Executions returns a paginated list of executions
func (q *QueryResolver) Executions(ctx context.Context, workflowID *string, filter *ExecutionFilter, pagination *PaginationInput) (*ExecutionConnection, error) {
	return &ExecutionConnection{
		Edges:      []*ExecutionEdge{},
		PageInfo:   &PageInfo{},
		TotalCount: 0,
	}, nil
}

// Schedule returns a schedule by ID
func (q *QueryResolver) Schedule(ctx context.Context, id string) (*Schedule, error) {
	return &Schedule{
		ID:             id,
		Name:           "Daily Schedule",
		CronExpression: "0 9 * * *",
		Timezone:       "UTC",
		Enabled:        true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}, nil
}

// Schedules returns a paginated list of schedules
func (q *QueryResolver) Schedules(ctx context.Context, workflowID *string, pagination *PaginationInput) (*ScheduleConnection, error) {
	return &ScheduleConnection{
		Edges:      []*ScheduleEdge{},
		PageInfo:   &PageInfo{},
		TotalCount: 0,
	}, nil
}

// UnreadNotificationCount returns the count of unread notifications
func (q *QueryResolver) UnreadNotificationCount(ctx context.Context) (int, error) {
	return 5, nil
}

// Search performs a search across resources
func (q *QueryResolver) Search(ctx context.Context, query string, types []SearchType, pagination *PaginationInput) (*SearchResult, error) {
	return &SearchResult{
		Items:      []*SearchItem{},
		TotalCount: 0,
		Facets:     []*SearchFacet{},
	}, nil
}

// NodeDefinitions returns available node definitions
func (q *QueryResolver) NodeDefinitions(ctx context.Context, nodeType *NodeType) ([]*NodeDefinition, error) {
	return []*NodeDefinition{
		{
			Type:        NodeTypeTrigger,
			Name:        "HTTP Trigger",
			Description: "Triggers workflow on HTTP request",
			Category:    "Triggers",
			Icon:        "http",
		},
		{
			Type:        NodeTypeAction,
			Name:        "HTTP Request",
			Description: "Makes an HTTP request",
			Category:    "Actions",
			Icon:        "api",
		},
		{
			Type:        NodeTypeCondition,
			Name:        "If/Else",
			Description: "Conditional branching",
			Category:    "Logic",
			Icon:        "branch",
		},
	}, nil
}

// Mutation resolvers
type MutationResolver struct {
	*Resolver
}

func (r *Resolver) Mutation() *MutationResolver {
	return &MutationResolver{r}
}

// Login authenticates a user
func (m *MutationResolver) Login(ctx context.Context, input LoginInput) (*AuthPayload, error) {
	return &AuthPayload{
		User: &User{
			ID:        uuid.New().String(),
			Email:     input.Email,
			FirstName: "Test",
			LastName:  "User",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Tokens: &Tokens{
			AccessToken:  "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.sample",
			RefreshToken: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.refresh",
			ExpiresIn:    86400,
		},
	}, nil
}

// Register creates a new user account
func (m *MutationResolver) Register(ctx context.Context, input RegisterInput) (*AuthPayload, error) {
	return &AuthPayload{
		User: &User{
			ID:        uuid.New().String(),
			Email:     input.Email,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Tokens: &Tokens{
			AccessToken:  "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.sample",
			RefreshToken: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.refresh",
			ExpiresIn:    86400,
		},
	}, nil
}

// CreateWorkflow creates a new workflow
func (m *MutationResolver) CreateWorkflow(ctx context.Context, input CreateWorkflowInput) (*Workflow, error) {
	workflow := &Workflow{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: ptrString(input.Description),
		Status:      WorkflowStatusDraft,
		Version:     1,
		Nodes:       []Node{},
		Connections: []Connection{},
		Tags:        input.Tags,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	return workflow, nil
}

// UpdateWorkflow updates an existing workflow
func (m *MutationResolver) UpdateWorkflow(ctx context.Context, id string, input UpdateWorkflowInput) (*Workflow, error) {
	return &Workflow{
		ID:        id,
		Name:      *input.Name,
		Status:    WorkflowStatusDraft,
		Version:   2,
		UpdatedAt: time.Now(),
	}, nil
}

// DeleteWorkflow deletes a workflow
func (m *MutationResolver) DeleteWorkflow(ctx context.Context, id string) (bool, error) {
	return true, nil
}

// ActivateWorkflow activates a workflow
func (m *MutationResolver) ActivateWorkflow(ctx context.Context, id string) (*Workflow, error) {
	return &Workflow{
		ID:        id,
		Status:    WorkflowStatusActive,
		UpdatedAt: time.Now(),
	}, nil
}

// DeactivateWorkflow deactivates a workflow
func (m *MutationResolver) DeactivateWorkflow(ctx context.Context, id string) (*Workflow, error) {
	return &Workflow{
		ID:        id,
		Status:    WorkflowStatusInactive,
		UpdatedAt: time.Now(),
	}, nil
}

// ExecuteWorkflow executes a workflow
func (m *MutationResolver) ExecuteWorkflow(ctx context.Context, id string, input *ExecuteWorkflowInput) (*ExecutionResult, error) {
	return &ExecutionResult{
		ExecutionID: uuid.New().String(),
		Status:      ExecutionStatusRunning,
	}, nil
}

// CancelExecution cancels a running execution
func (m *MutationResolver) CancelExecution(ctx context.Context, id string) (*Execution, error) {
	return &Execution{
		ID:          id,
		Status:      ExecutionStatusCancelled,
		CompletedAt: ptrTime(time.Now()),
	}, nil
}

// CreateSchedule creates a new schedule
func (m *MutationResolver) CreateSchedule(ctx context.Context, input CreateScheduleInput) (*Schedule, error) {
	return &Schedule{
		ID:             uuid.New().String(),
		Name:           input.Name,
		CronExpression: input.CronExpression,
		Timezone:       stringOrDefault(input.Timezone, "UTC"),
		Enabled:        boolOrDefault(input.Enabled, true),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}, nil
}

// Subscription resolvers
type SubscriptionResolver struct {
	*Resolver
}

func (r *Resolver) Subscription() *SubscriptionResolver {
	return &SubscriptionResolver{r}
}

// ExecutionUpdated subscribes to execution updates
func (s *SubscriptionResolver) ExecutionUpdated(ctx context.Context, id string) (<-chan *Execution, error) {
	ch := make(chan *Execution)

	go func() {
		defer close(ch)

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ch <- &Execution{
					ID:        id,
					Status:    ExecutionStatusRunning,
					UpdatedAt: time.Now(),
				}
			}
		}
	}()

	return ch, nil
}

// NotificationReceived subscribes to new notifications
func (s *SubscriptionResolver) NotificationReceived(ctx context.Context) (<-chan *Notification, error) {
	ch := make(chan *Notification)

	go func() {
		defer close(ch)
		<-ctx.Done()
	}()

	return ch, nil
}

// Helper functions
func ptrTime(t time.Time) *time.Time {
	return &t
}

func ptrInt(i int) *int {
	return &i
}

func ptrString(s *string) *string {
	return s
}

func stringOrDefault(s *string, def string) string {
	if s != nil {
		return *s
	}
	return def
}

func boolOrDefault(b *bool, def bool) bool {
	if b != nil {
		return *b
	}
	return def
}

// Type definitions
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	FullName     string       `json:"fullName"`
	Avatar       *string      `json:"avatar"`
	Organization *Organization `json:"organization"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

type Workflow struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Status      WorkflowStatus    `json:"status"`
	Version     int               `json:"version"`
	Nodes       []Node            `json:"nodes"`
	Connections []Connection      `json:"connections"`
	Settings    *WorkflowSettings `json:"settings"`
	Tags        []string          `json:"tags"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "DRAFT"
	WorkflowStatusActive   WorkflowStatus = "ACTIVE"
	WorkflowStatusInactive WorkflowStatus = "INACTIVE"
	WorkflowStatusArchived WorkflowStatus = "ARCHIVED"
)

type Node struct {
	ID          string          `json:"id"`
	Type        NodeType        `json:"type"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Config      json.RawMessage `json:"config"`
	Position    Position        `json:"position"`
}

type NodeType string

const (
	NodeTypeTrigger   NodeType = "TRIGGER"
	NodeTypeAction    NodeType = "ACTION"
	NodeTypeCondition NodeType = "CONDITION"
	NodeTypeLoop      NodeType = "LOOP"
	NodeTypeTransform NodeType = "TRANSFORM"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Connection struct {
	ID           string  `json:"id"`
	SourceNodeID string  `json:"sourceNodeId"`
	TargetNodeID string  `json:"targetNodeId"`
	SourcePort   *string `json:"sourcePort"`
	TargetPort   *string `json:"targetPort"`
}

type WorkflowSettings struct {
	MaxExecutionTime int           `json:"maxExecutionTime"`
	RetryPolicy      *RetryPolicy  `json:"retryPolicy"`
	ErrorHandling    ErrorHandling `json:"errorHandling"`
	Timeout          int           `json:"timeout"`
}

type RetryPolicy struct {
	MaxAttempts  int         `json:"maxAttempts"`
	BackoffType  BackoffType `json:"backoffType"`
	DelaySeconds int         `json:"delaySeconds"`
}

type BackoffType string
type ErrorHandling string

type Execution struct {
	ID          string          `json:"id"`
	Workflow    *Workflow       `json:"workflow"`
	Status      ExecutionStatus `json:"status"`
	Input       json.RawMessage `json:"input"`
	Output      json.RawMessage `json:"output"`
	Duration    *int            `json:"duration"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "PENDING"
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusCancelled ExecutionStatus = "CANCELLED"
)

type ExecutionResult struct {
	ExecutionID string          `json:"executionId"`
	Status      ExecutionStatus `json:"status"`
	Output      json.RawMessage `json:"output"`
}

type Schedule struct {
	ID             string     `json:"id"`
	Workflow       *Workflow  `json:"workflow"`
	Name           string     `json:"name"`
	CronExpression string     `json:"cronExpression"`
	Timezone       string     `json:"timezone"`
	Enabled        bool       `json:"enabled"`
	NextRunAt      *time.Time `json:"nextRunAt"`
	LastRunAt      *time.Time `json:"lastRunAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type Notification struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Type      NotificationType     `json:"type"`
	Priority  NotificationPriority `json:"priority"`
	Read      bool                 `json:"read"`
	CreatedAt time.Time            `json:"createdAt"`
}

type NotificationType string
type NotificationPriority string

type NodeDefinition struct {
	Type        NodeType `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Icon        string   `json:"icon"`
}

type SearchResult struct {
	Items      []*SearchItem  `json:"items"`
	TotalCount int            `json:"totalCount"`
	Facets     []*SearchFacet `json:"facets"`
}

type SearchItem struct {
	ID    string     `json:"id"`
	Type  SearchType `json:"type"`
	Title string     `json:"title"`
	Score float64    `json:"score"`
}

type SearchType string
type SearchFacet struct {
	Field  string        `json:"field"`
	Values []*FacetValue `json:"values"`
}

type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type AuthPayload struct {
	User   *User   `json:"user"`
	Tokens *Tokens `json:"tokens"`
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// Connection types
type WorkflowConnection struct {
	Edges      []*WorkflowEdge `json:"edges"`
	PageInfo   *PageInfo       `json:"pageInfo"`
	TotalCount int             `json:"totalCount"`
}

type WorkflowEdge struct {
	Node   *Workflow `json:"node"`
	Cursor string    `json:"cursor"`
}

type ExecutionConnection struct {
	Edges      []*ExecutionEdge `json:"edges"`
	PageInfo   *PageInfo        `json:"pageInfo"`
	TotalCount int              `json:"totalCount"`
}

type ExecutionEdge struct {
	Node   *Execution `json:"node"`
	Cursor string     `json:"cursor"`
}

type ScheduleConnection struct {
	Edges      []*ScheduleEdge `json:"edges"`
	PageInfo   *PageInfo       `json:"pageInfo"`
	TotalCount int             `json:"totalCount"`
}

type ScheduleEdge struct {
	Node   *Schedule `json:"node"`
	Cursor string    `json:"cursor"`
}

type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

// Input types
type LoginInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe *bool  `json:"rememberMe"`
}

type RegisterInput struct {
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	OrganizationName *string `json:"organizationName"`
}

type CreateWorkflowInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

type UpdateWorkflowInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

type ExecuteWorkflowInput struct {
	Input   json.RawMessage `json:"input"`
	Context json.RawMessage `json:"context"`
	Async   *bool           `json:"async"`
}

type CreateScheduleInput struct {
	WorkflowID     string  `json:"workflowId"`
	Name           string  `json:"name"`
	CronExpression string  `json:"cronExpression"`
	Timezone       *string `json:"timezone"`
	Enabled        *bool   `json:"enabled"`
}

type WorkflowFilter struct {
	Status        *WorkflowStatus `json:"status"`
	Tags          []string        `json:"tags"`
	CreatedAfter  *time.Time      `json:"createdAfter"`
	CreatedBefore *time.Time      `json:"createdBefore"`
}

type ExecutionFilter struct {
	Status       *ExecutionStatus `json:"status"`
	StartedAfter *time.Time       `json:"startedAfter"`
}

type PaginationInput struct {
	Page     *int    `json:"page"`
	PageSize *int    `json:"pageSize"`
	SortBy   *string `json:"sortBy"`
}
