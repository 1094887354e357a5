package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/adapters/http/dto"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/app/service"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/logger"
)

// ExecutionHandler exposes a thin, read-mostly HTTP surface over
// ExecutionService: starting a run, inspecting one or many, and the
// operator escape hatch for ending a stuck run. CRUD/auth for workflows,
// nodes, credentials and the rest of the domain stay out of scope (§1
// Non-goals) — this is ambient server plumbing, not a management API.
type ExecutionHandler struct {
	service *service.ExecutionService
	logger  logger.Logger
}

// NewExecutionHandler builds an execution handler over the given service.
func NewExecutionHandler(svc *service.ExecutionService, log logger.Logger) *ExecutionHandler {
	return &ExecutionHandler{service: svc, logger: log}
}

// RegisterRoutes wires the execution endpoints onto router.
func (h *ExecutionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/executions", h.StartExecution).Methods("POST")
	router.HandleFunc("/executions", h.ListExecutions).Methods("GET")
	router.HandleFunc("/executions/{id}", h.GetExecution).Methods("GET")
	router.HandleFunc("/executions/{id}/end", h.EndExecution).Methods("POST")
}

// StartExecution launches a new run of workflowID's current graph.
func (h *ExecutionHandler) StartExecution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.StartExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, model.InvalidInput("body", "request body must be valid JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, model.InvalidInput("body", err.Error()))
		return
	}

	workspaceID := r.URL.Query().Get("workspaceId")
	if workspaceID == "" {
		h.respondError(w, http.StatusBadRequest, model.InvalidInput("workspaceId", "workspaceId query parameter is required"))
		return
	}

	var triggerID *model.TriggerID
	if req.TriggerID != "" {
		t := model.TriggerID(req.TriggerID)
		triggerID = &t
	}

	execution, err := h.service.StartExecution(ctx, service.StartExecutionCommand{
		WorkspaceID: model.WorkspaceID(workspaceID),
		WorkflowID:  model.WorkflowID(req.WorkflowID),
		TriggerID:   triggerID,
		TriggerData: req.TriggerData,
	})
	if err != nil {
		h.logger.Error("failed to start execution", "error", err, "workflow_id", req.WorkflowID)
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, dto.ToExecutionResponse(execution))
}

// GetExecution fetches one execution by id.
func (h *ExecutionHandler) GetExecution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	executionID := model.ExecutionID(mux.Vars(r)["id"])

	execution, err := h.service.GetExecution(ctx, executionID)
	if err != nil {
		if errors.Is(err, service.ErrExecutionNotFound) {
			h.respondError(w, http.StatusNotFound, model.ResourceNotFound("execution", executionID.String()))
			return
		}
		h.logger.Error("failed to get execution", "error", err, "execution_id", executionID)
		h.respondError(w, http.StatusInternalServerError, model.DatabaseQueryError("get_execution", err))
		return
	}

	h.respondJSON(w, http.StatusOK, dto.ToExecutionResponse(execution))
}

// ListExecutions lists executions for a workspace, optionally filtered by status.
func (h *ExecutionHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	workspaceID := r.URL.Query().Get("workspaceId")
	if workspaceID == "" {
		h.respondError(w, http.StatusBadRequest, model.InvalidInput("workspaceId", "workspaceId query parameter is required"))
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	executions, total, err := h.service.ListExecutions(ctx, service.ListExecutionsQuery{
		WorkspaceID: model.WorkspaceID(workspaceID),
		Status:      model.ExecutionStatus(r.URL.Query().Get("status")),
		Offset:      offset,
		Limit:       limit,
	})
	if err != nil {
		h.logger.Error("failed to list executions", "error", err, "workspace_id", workspaceID)
		h.respondError(w, http.StatusInternalServerError, model.DatabaseQueryError("list_executions", err))
		return
	}

	items := make([]dto.ExecutionResponse, len(executions))
	for i, e := range executions {
		items[i] = dto.ToExecutionResponse(e)
	}

	h.respondJSON(w, http.StatusOK, dto.ListExecutionsResponse{
		Items:      items,
		Pagination: dto.Pagination{Offset: offset, Limit: limit, Total: total},
	})
}

// EndExecution is the operator escape hatch that force-cancels a stuck run.
func (h *ExecutionHandler) EndExecution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	executionID := model.ExecutionID(mux.Vars(r)["id"])

	if err := h.service.EndExecution(ctx, executionID); err != nil {
		if errors.Is(err, service.ErrExecutionNotFound) {
			h.respondError(w, http.StatusNotFound, model.ResourceNotFound("execution", executionID.String()))
			return
		}
		h.logger.Error("failed to end execution", "error", err, "execution_id", executionID)
		h.respondError(w, http.StatusInternalServerError, model.DatabaseTransactionError("end_execution", err))
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *ExecutionHandler) respondDomainError(w http.ResponseWriter, err error) {
	var domainErr *model.Error
	if errors.As(err, &domainErr) {
		status := http.StatusInternalServerError
		switch domainErr.Code {
		case model.ErrorCodeInvalidInput:
			status = http.StatusBadRequest
		case model.ErrorCodeResourceNotFound:
			status = http.StatusNotFound
		case model.ErrorCodeBusinessRuleViolation:
			status = http.StatusUnprocessableEntity
		}
		h.respondError(w, status, domainErr)
		return
	}
	h.respondError(w, http.StatusInternalServerError, model.DatabaseTransactionError("start_execution", err))
}

func (h *ExecutionHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *ExecutionHandler) respondError(w http.ResponseWriter, status int, err *model.Error) {
	h.respondJSON(w, status, dto.ErrorResponse{Code: string(err.Code), Message: err.Message, Details: err.Details})
}
