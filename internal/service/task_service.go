// Package service implements the business operations between the API layer
// and the stores: task lifecycle and querying, and category management.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/taskboard-api/internal/domain"
	"github.com/mwhitfield/taskboard-api/internal/events"
	"github.com/mwhitfield/taskboard-api/internal/platform/logger"
	"github.com/mwhitfield/taskboard-api/internal/store"
)

// TaskInput carries the mutable task fields supplied by a create or full
// update request. Ownership is never part of the input: the user ID always
// comes from the authenticated context, so a patch cannot reassign a task.
type TaskInput struct {
	Title          string
	Description    string
	Status         domain.TaskStatus   // empty means default (create) or unchanged handling by caller
	Priority       domain.TaskPriority // empty means default
	DueDate        *time.Time
	CategoryID     *uuid.UUID
	Tags           []string
	EstimatedHours *float64
}

// TaskListResult bundles one page of tasks with pagination metadata and the
// owner's status histogram. The histogram ignores the active filters.
type TaskListResult struct {
	Tasks      []*domain.Task
	Pagination store.Pagination
	Stats      store.StatusCounts
}

// TaskService defines the task lifecycle and query operations.
// Every operation is scoped to the calling user.
type TaskService interface {
	// Create persists a new task and emits task:created.
	Create(ctx context.Context, userID uuid.UUID, input TaskInput) (*domain.Task, error)

	// Get returns the owner's task by ID.
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)

	// List returns one filtered, sorted page of the owner's tasks together
	// with pagination metadata and the filter-independent status histogram.
	List(ctx context.Context, userID uuid.UUID, params store.TaskListParams) (*TaskListResult, error)

	// Update replaces all mutable fields of the owner's task and emits
	// task:updated. Setting status to completed through this path stamps
	// the completion timestamp, same as UpdateStatus.
	Update(ctx context.Context, userID, id uuid.UUID, input TaskInput) (*domain.Task, error)

	// UpdateStatus transitions the task's status, maintaining the
	// completion-timestamp invariant, and emits task:updated.
	UpdateStatus(
		ctx context.Context,
		userID, id uuid.UUID,
		status domain.TaskStatus,
	) (*domain.Task, error)

	// UpdatePriority changes only the task's priority. Priority changes
	// never touch the completion timestamp and emit no event.
	UpdatePriority(
		ctx context.Context,
		userID, id uuid.UUID,
		priority domain.TaskPriority,
	) (*domain.Task, error)

	// Delete removes the owner's task and emits task:deleted carrying the
	// task ID.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// taskService is the production TaskService implementation.
type taskService struct {
	taskStore     store.TaskStore
	categoryStore store.CategoryStore
	publisher     events.Publisher
	logger        *slog.Logger
}

// NewTaskService creates a TaskService backed by the given stores and event
// publisher. The category store resolves category references on writes.
func NewTaskService(
	taskStore store.TaskStore,
	categoryStore store.CategoryStore,
	publisher events.Publisher,
	logger *slog.Logger,
) (TaskService, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if categoryStore == nil {
		return nil, fmt.Errorf("category store cannot be nil")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskService{
		taskStore:     taskStore,
		categoryStore: categoryStore,
		publisher:     publisher,
		logger:        logger.With(slog.String("component", "task_service")),
	}, nil
}

// Create implements TaskService.Create.
func (s *taskService) Create(
	ctx context.Context,
	userID uuid.UUID,
	input TaskInput,
) (*domain.Task, error) {
	task, err := domain.NewTask(userID, input.Title)
	if err != nil {
		return nil, err
	}
	if err := applyInput(task, input); err != nil {
		return nil, err
	}
	if err := s.resolveCategory(ctx, task); err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TaskCreated, task)
	return task, nil
}

// Get implements TaskService.Get.
func (s *taskService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	return s.taskStore.GetByID(ctx, userID, id)
}

// List implements TaskService.List.
func (s *taskService) List(
	ctx context.Context,
	userID uuid.UUID,
	params store.TaskListParams,
) (*TaskListResult, error) {
	params.Normalize()

	tasks, total, err := s.taskStore.List(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	stats, err := s.taskStore.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &TaskListResult{
		Tasks:      tasks,
		Pagination: store.NewPagination(params.Page, params.Limit, total),
		Stats:      stats,
	}, nil
}

// Update implements TaskService.Update.
// The task is loaded, patched and saved; the status change routes through
// the same transition helper as UpdateStatus so the completion-timestamp
// invariant holds on every mutation path.
func (s *taskService) Update(
	ctx context.Context,
	userID, id uuid.UUID,
	input TaskInput,
) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	task.Title = input.Title
	if err := applyInput(task, input); err != nil {
		return nil, err
	}
	if err := s.resolveCategory(ctx, task); err != nil {
		return nil, err
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.taskStore.Update(ctx, task); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TaskUpdated, task)
	return task, nil
}

// UpdateStatus implements TaskService.UpdateStatus.
func (s *taskService) UpdateStatus(
	ctx context.Context,
	userID, id uuid.UUID,
	status domain.TaskStatus,
) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := task.TransitionStatus(status); err != nil {
		return nil, err
	}

	if err := s.taskStore.Update(ctx, task); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TaskUpdated, task)
	return task, nil
}

// UpdatePriority implements TaskService.UpdatePriority.
func (s *taskService) UpdatePriority(
	ctx context.Context,
	userID, id uuid.UUID,
	priority domain.TaskPriority,
) (*domain.Task, error) {
	if !priority.IsValid() {
		return nil, domain.ErrInvalidPriority
	}
	return s.taskStore.UpdatePriority(ctx, userID, id, priority)
}

// Delete implements TaskService.Delete.
func (s *taskService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.taskStore.Delete(ctx, userID, id); err != nil {
		return err
	}

	// The payload is the bare task ID, not an object.
	s.publish(ctx, events.TaskDeleted, id)
	return nil
}

// resolveCategory verifies that the referenced category exists and belongs
// to the task's owner, and fills the embedded reference returned to clients.
// Another user's category is indistinguishable from a missing one.
func (s *taskService) resolveCategory(ctx context.Context, task *domain.Task) error {
	if task.CategoryID == nil {
		task.Category = nil
		return nil
	}

	category, err := s.categoryStore.GetByID(ctx, task.UserID, *task.CategoryID)
	if err != nil {
		return err
	}

	task.Category = &domain.TaskCategory{
		ID:    category.ID,
		Name:  category.Name,
		Color: category.Color,
	}
	return nil
}

// publish broadcasts a lifecycle event. Delivery is best-effort: failures
// are logged and never surfaced to the caller.
func (s *taskService) publish(ctx context.Context, kind string, payload any) {
	if err := s.publisher.Publish(kind, payload); err != nil {
		log := logger.FromContextOrDefault(ctx, s.logger)
		log.Warn("failed to publish task event",
			slog.String("event", kind),
			slog.String("error", err.Error()))
	}
}

// applyInput copies the mutable fields of input onto the task. The status
// change goes through TransitionStatus to maintain the completion invariant.
func applyInput(task *domain.Task, input TaskInput) error {
	task.Description = input.Description
	task.DueDate = input.DueDate
	task.CategoryID = input.CategoryID
	task.EstimatedHours = input.EstimatedHours

	if input.Tags != nil {
		task.Tags = input.Tags
	}

	if input.Priority != "" {
		if !input.Priority.IsValid() {
			return domain.ErrInvalidPriority
		}
		task.Priority = input.Priority
	}

	if input.Status != "" && input.Status != task.Status {
		if err := task.TransitionStatus(input.Status); err != nil {
			return err
		}
	}

	return task.Validate()
}
