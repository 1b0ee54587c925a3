package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwhitfield/taskboard-api/internal/api/shared"
	"github.com/mwhitfield/taskboard-api/internal/domain"
	"github.com/mwhitfield/taskboard-api/internal/platform/logger"
	"github.com/mwhitfield/taskboard-api/internal/service"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskHandler{
		taskService: taskService,
		validator:   newValidator(),
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// List handles GET /api/tasks. It returns one filtered, sorted page of the
// caller's tasks with pagination metadata and the status histogram.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	params, err := parseTaskListParams(r)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			shared.RespondWithValidationErrors(w, r, []shared.FieldError{
				{Field: ve.Field, Message: ve.Message},
			})
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.taskService.List(ctx, userID, params)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, map[string]any{
		"tasks":      result.Tasks,
		"pagination": result.Pagination,
		"stats":      result.Stats,
	})
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	req, ok := h.decodeTaskRequest(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Create(ctx, userID, taskInputFromRequest(req))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))

	shared.RespondWithMessageAndData(w, r, http.StatusCreated, "Task created successfully",
		map[string]any{"task": task})
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	task, err := h.taskService.Get(ctx, userID, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, map[string]any{"task": task})
}

// Update handles PUT /api/tasks/{id}. It replaces all mutable fields.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	req, ok := h.decodeTaskRequest(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Update(ctx, userID, id, taskInputFromRequest(req))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithMessageAndData(w, r, http.StatusOK, "Task updated successfully",
		map[string]any{"task": task})
}

// UpdateStatus handles PATCH /api/tasks/{id}/status.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	var req UpdateTaskStatusRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, fieldErrors(err))
		return
	}

	task, err := h.taskService.UpdateStatus(ctx, userID, id, domain.TaskStatus(req.Status))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithMessageAndData(w, r, http.StatusOK, "Task status updated",
		map[string]any{"task": task})
}

// UpdatePriority handles PATCH /api/tasks/{id}/priority.
func (h *TaskHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	var req UpdateTaskPriorityRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, fieldErrors(err))
		return
	}

	task, err := h.taskService.UpdatePriority(ctx, userID, id, domain.TaskPriority(req.Priority))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithMessageAndData(w, r, http.StatusOK, "Task priority updated",
		map[string]any{"task": task})
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	if err := h.taskService.Delete(ctx, userID, id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("task deleted",
		slog.String("task_id", id.String()),
		slog.String("user_id", userID.String()))

	w.WriteHeader(http.StatusNoContent)
}

// decodeTaskRequest decodes and validates the shared create/update payload,
// writing the error response itself when the payload is rejected.
func (h *TaskHandler) decodeTaskRequest(w http.ResponseWriter, r *http.Request) (TaskRequest, bool) {
	var req TaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, fieldErrors(err))
		return req, false
	}

	if req.DueDate != nil && req.DueDate.Before(time.Now()) {
		shared.RespondWithValidationErrors(w, r, []shared.FieldError{
			{Field: "dueDate", Message: "must be in the future"},
		})
		return req, false
	}

	return req, true
}

// taskInputFromRequest converts the wire payload to the service input.
func taskInputFromRequest(req TaskRequest) service.TaskInput {
	return service.TaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         domain.TaskStatus(req.Status),
		Priority:       domain.TaskPriority(req.Priority),
		DueDate:        req.DueDate,
		CategoryID:     req.Category,
		Tags:           req.Tags,
		EstimatedHours: req.EstimatedHours,
	}
}
