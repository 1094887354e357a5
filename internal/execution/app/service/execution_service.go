package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	domainservice "github.com/linkflow-ai/linkflow-ai/internal/execution/domain/service"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/cache"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/logger"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/messaging/kafka"
	"github.com/linkflow-ai/linkflow-ai/internal/shared/events"
)

var (
	ErrExecutionNotFound = errors.New("execution not found")
)

// ExecutionService is the application-layer facade over the launcher and
// the two scheduler halves: it owns transaction boundaries and is the only
// thing outside internal/execution/domain that ever sees a
// database.Executor (§4.5).
type ExecutionService struct {
	db             *database.DB
	executions     repository.ExecutionRepository
	launcher       *domainservice.Launcher
	eventPublisher *kafka.EventPublisher
	cache          *cache.RedisCache
	logger         logger.Logger
}

// NewExecutionService wires the facade over an already-constructed
// Launcher (itself built from the six repositories + resolver).
func NewExecutionService(
	db *database.DB,
	executions repository.ExecutionRepository,
	launcher *domainservice.Launcher,
	eventPublisher *kafka.EventPublisher,
	redisCache *cache.RedisCache,
	log logger.Logger,
) *ExecutionService {
	return &ExecutionService{
		db:             db,
		executions:     executions,
		launcher:       launcher,
		eventPublisher: eventPublisher,
		cache:          redisCache,
		logger:         log,
	}
}

// StartExecutionCommand carries everything needed to launch a workflow run.
type StartExecutionCommand struct {
	WorkspaceID model.WorkspaceID
	WorkflowID  model.WorkflowID
	TriggerID   *model.TriggerID
	TriggerData map[string]any
}

// StartExecution expands the workflow graph into a RUNNING execution with
// one pending ExecutionInput per node, inside a single transaction, and
// publishes execution.started once committed. The input handler loop picks
// up the newly-ready (dependency_count == 0) rows on its next poll — there
// is no synchronous hand-off to the engine here.
func (s *ExecutionService) StartExecution(ctx context.Context, cmd StartExecutionCommand) (*model.Execution, error) {
	var execution *model.Execution

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		execution, err = s.launcher.Start(ctx, tx, cmd.WorkspaceID, cmd.WorkflowID, cmd.TriggerID, cmd.TriggerData)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		event := &events.Event{
			AggregateID:   execution.ID().String(),
			AggregateType: "Execution",
			Type:          events.ExecutionStarted,
			Timestamp:     time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish execution started event", "error", err)
		}
	}

	s.logger.Info("execution started",
		"execution_id", execution.ID(),
		"workflow_id", cmd.WorkflowID,
		"workspace_id", cmd.WorkspaceID,
	)

	return execution, nil
}

// GetExecution fetches one execution, cache-aside.
func (s *ExecutionService) GetExecution(ctx context.Context, executionID model.ExecutionID) (*model.Execution, error) {
	cacheKey := fmt.Sprintf("execution:%s", executionID)

	if s.cache != nil {
		var cached executionCacheEntry
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached.toExecution(), nil
		}
	}

	execution, err := s.executions.FindByID(ctx, s.db, executionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExecutionNotFound
		}
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	if s.cache != nil {
		cacheKey := fmt.Sprintf("execution:%s", executionID)
		_ = s.cache.Set(ctx, cacheKey, newExecutionCacheEntry(execution), 1*time.Minute)
	}

	return execution, nil
}

// ListExecutionsQuery paginates an execution listing, scoped to a workspace
// and optionally filtered by status.
type ListExecutionsQuery struct {
	WorkspaceID model.WorkspaceID
	Status      model.ExecutionStatus
	Offset      int
	Limit       int
}

// ListExecutions lists executions for a workspace, optionally filtered by status.
func (s *ExecutionService) ListExecutions(ctx context.Context, query ListExecutionsQuery) ([]*model.Execution, int64, error) {
	executions, err := s.executions.FindByWorkspaceAndStatus(ctx, s.db, query.WorkspaceID, query.Status, query.Offset, query.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list executions: %w", err)
	}

	total, err := s.executions.CountByWorkspaceAndStatus(ctx, s.db, query.WorkspaceID, query.Status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count executions: %w", err)
	}

	return executions, total, nil
}

// EndExecution force-finalizes a still-running execution as CANCELLED — the
// administrative escape hatch for a stuck or abandoned run (the admin
// endpoint in SPEC_FULL's supplemented features). It reuses the same
// FOR UPDATE discipline as the scheduler's own finalizer so it can never
// race a concurrent node completion into an inconsistent state.
func (s *ExecutionService) EndExecution(ctx context.Context, executionID model.ExecutionID) error {
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		execution, err := s.executions.FindByIDForUpdate(ctx, tx, executionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrExecutionNotFound
			}
			return fmt.Errorf("failed to load execution: %w", err)
		}
		if err := execution.Finalize(model.ExecutionStatusCancelled, execution.Results()); err != nil {
			return fmt.Errorf("failed to cancel execution: %w", err)
		}
		return s.executions.Update(ctx, tx, execution)
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, fmt.Sprintf("execution:%s", executionID))
	}
	if s.eventPublisher != nil {
		event := &events.Event{
			AggregateID:   executionID.String(),
			AggregateType: "Execution",
			Type:          events.ExecutionCancelled,
			Timestamp:     time.Now(),
		}
		_ = s.eventPublisher.Publish(ctx, event)
	}

	s.logger.Info("execution ended by operator", "execution_id", executionID)
	return nil
}

// executionCacheEntry is the JSON-serializable shape cached for an
// Execution, whose fields are otherwise private to the aggregate.
type executionCacheEntry struct {
	ID          model.ExecutionID              `json:"id"`
	WorkspaceID model.WorkspaceID              `json:"workspace_id"`
	WorkflowID  model.WorkflowID               `json:"workflow_id"`
	TriggerID   *model.TriggerID               `json:"trigger_id"`
	Status      model.ExecutionStatus          `json:"status"`
	StartedAt   time.Time                      `json:"started_at"`
	EndedAt     *time.Time                     `json:"ended_at"`
	TriggerData map[string]any                 `json:"trigger_data"`
	Results     map[model.NodeID]model.NodeResult `json:"results"`
}

func newExecutionCacheEntry(e *model.Execution) executionCacheEntry {
	return executionCacheEntry{
		ID: e.ID(), WorkspaceID: e.WorkspaceID(), WorkflowID: e.WorkflowID(),
		TriggerID: e.TriggerID(), Status: e.Status(), StartedAt: e.StartedAt(),
		EndedAt: e.EndedAt(), TriggerData: e.TriggerData(), Results: e.Results(),
	}
}

func (c executionCacheEntry) toExecution() *model.Execution {
	return model.ReconstructExecution(c.ID, c.WorkspaceID, c.WorkflowID, c.TriggerID, c.Status, c.StartedAt, c.EndedAt, c.TriggerData, c.Results)
}
