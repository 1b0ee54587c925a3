package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Valid task statuses.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusArchived   TaskStatus = "archived"
)

// TaskStatuses lists every known status in presentation order.
// The status histogram always contains exactly these buckets.
var TaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusArchived,
}

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusArchived:
		return true
	}
	return false
}

// TaskPriority represents the urgency of a task.
type TaskPriority string

// Valid task priorities.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid reports whether the priority is one of the known values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Common task validation errors. Each wraps ErrValidation so the API layer
// maps them to a 400 response even when one escapes request-level checks.
var (
	ErrEmptyTaskID      = fmt.Errorf("%w: task ID cannot be empty", ErrValidation)
	ErrEmptyTaskTitle   = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrTaskTitleTooLong = fmt.Errorf("%w: task title cannot exceed 200 characters", ErrValidation)
	ErrEmptyTaskOwner   = fmt.Errorf("%w: task owner cannot be empty", ErrValidation)
)

// maxTaskTitleLength bounds the task title.
const maxTaskTitleLength = 200

// TaskCategory is the category reference embedded in task responses.
type TaskCategory struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

// Task represents a single tracked item of work. Every task is exclusively
// owned by one user; the category reference is weak and is cleared when the
// category is deleted. CategoryID is the stored reference; Category carries
// the resolved name and color returned to clients.
type Task struct {
	ID             uuid.UUID     `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	Status         TaskStatus    `json:"status"`
	Priority       TaskPriority  `json:"priority"`
	DueDate        *time.Time    `json:"dueDate,omitempty"`
	CategoryID     *uuid.UUID    `json:"-"`
	Category       *TaskCategory `json:"category,omitempty"`
	Tags           []string      `json:"tags"`
	EstimatedHours *float64      `json:"estimatedHours,omitempty"`
	UserID         uuid.UUID     `json:"user"`
	CompletedAt    *time.Time    `json:"completedAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// NewTask creates a task owned by the given user, applying defaults for
// status and priority. Callers that create a task in a non-default status
// must follow up with TransitionStatus.
func NewTask(userID uuid.UUID, title string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		Status:    TaskStatusTodo,
		Priority:  TaskPriorityMedium,
		Tags:      []string{},
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	if len(t.Title) > maxTaskTitleLength {
		return ErrTaskTitleTooLong
	}
	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyTaskOwner
	}
	return nil
}

// TransitionStatus moves the task to the given status and maintains the
// completion invariant: whenever the status becomes completed, CompletedAt
// is stamped with the current time. Moving away from completed leaves the
// previous timestamp in place. Every mutation path that can change status
// must go through this method so the invariant holds uniformly.
func (t *Task) TransitionStatus(status TaskStatus) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}

	if status == TaskStatusCompleted && t.Status != TaskStatusCompleted {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}
