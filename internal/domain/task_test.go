package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewTask(t *testing.T) {
	userID := uuid.New()

	task, err := NewTask(userID, "Write release notes")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if task.Title != "Write release notes" {
		t.Errorf("Expected title %q, got %q", "Write release notes", task.Title)
	}

	if task.Status != TaskStatusTodo {
		t.Errorf("Expected default status %q, got %q", TaskStatusTodo, task.Status)
	}

	if task.Priority != TaskPriorityMedium {
		t.Errorf("Expected default priority %q, got %q", TaskPriorityMedium, task.Priority)
	}

	if task.Tags == nil || len(task.Tags) != 0 {
		t.Errorf("Expected empty tag slice, got %v", task.Tags)
	}

	if task.CompletedAt != nil {
		t.Error("Expected nil CompletedAt on a new task")
	}

	if task.UserID != userID {
		t.Errorf("Expected owner %s, got %s", userID, task.UserID)
	}

	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("Expected non-zero timestamps")
	}
}

func TestNewTaskTrimsTitle(t *testing.T) {
	task, err := NewTask(uuid.New(), "  padded  ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.Title != "padded" {
		t.Errorf("Expected trimmed title %q, got %q", "padded", task.Title)
	}
}

func TestNewTaskInvalidTitle(t *testing.T) {
	if _, err := NewTask(uuid.New(), ""); err != ErrEmptyTaskTitle {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskTitle, err)
	}

	if _, err := NewTask(uuid.New(), "   "); err != ErrEmptyTaskTitle {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskTitle, err)
	}

	long := strings.Repeat("a", 201)
	if _, err := NewTask(uuid.New(), long); err != ErrTaskTitleTooLong {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleTooLong, err)
	}
}

func TestTaskValidationErrorsWrapBase(t *testing.T) {
	sentinels := []error{ErrEmptyTaskID, ErrEmptyTaskTitle, ErrTaskTitleTooLong, ErrEmptyTaskOwner}
	for _, sentinel := range sentinels {
		if !errors.Is(sentinel, ErrValidation) {
			t.Errorf("Expected %v to wrap ErrValidation", sentinel)
		}
	}
}

func TestTaskValidate(t *testing.T) {
	valid := Task{
		ID:       uuid.New(),
		Title:    "Valid task",
		Status:   TaskStatusTodo,
		Priority: TaskPriorityLow,
		UserID:   uuid.New(),
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalid := valid
	invalid.ID = uuid.Nil
	if err := invalid.Validate(); err != ErrEmptyTaskID {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskID, err)
	}

	invalid = valid
	invalid.Status = TaskStatus("pending")
	if err := invalid.Validate(); err != ErrInvalidStatus {
		t.Errorf("Expected error %v, got %v", ErrInvalidStatus, err)
	}

	invalid = valid
	invalid.Priority = TaskPriority("urgent")
	if err := invalid.Validate(); err != ErrInvalidPriority {
		t.Errorf("Expected error %v, got %v", ErrInvalidPriority, err)
	}

	invalid = valid
	invalid.UserID = uuid.Nil
	if err := invalid.Validate(); err != ErrEmptyTaskOwner {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskOwner, err)
	}
}

func TestTransitionStatusStampsCompletion(t *testing.T) {
	task, err := NewTask(uuid.New(), "Finish the report")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := task.TransitionStatus(TaskStatusCompleted); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.Status != TaskStatusCompleted {
		t.Errorf("Expected status %q, got %q", TaskStatusCompleted, task.Status)
	}

	if task.CompletedAt == nil {
		t.Fatal("Expected CompletedAt to be stamped on completion")
	}

	stamped := *task.CompletedAt

	// Moving away from completed keeps the original completion time.
	if err := task.TransitionStatus(TaskStatusInProgress); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.CompletedAt == nil || !task.CompletedAt.Equal(stamped) {
		t.Error("Expected CompletedAt to survive moving away from completed")
	}
}

func TestTransitionStatusCompletedToCompleted(t *testing.T) {
	task, err := NewTask(uuid.New(), "Already done")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := task.TransitionStatus(TaskStatusCompleted); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	first := *task.CompletedAt

	// Re-completing an already-completed task must not move the stamp.
	if err := task.TransitionStatus(TaskStatusCompleted); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !task.CompletedAt.Equal(first) {
		t.Error("Expected CompletedAt to be unchanged on completed -> completed")
	}
}

func TestTransitionStatusRejectsUnknown(t *testing.T) {
	task, err := NewTask(uuid.New(), "Guarded")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := task.TransitionStatus(TaskStatus("done")); err != ErrInvalidStatus {
		t.Errorf("Expected error %v, got %v", ErrInvalidStatus, err)
	}

	if task.Status != TaskStatusTodo {
		t.Errorf("Expected status to be unchanged, got %q", task.Status)
	}
}

func TestTaskStatusIsValid(t *testing.T) {
	for _, status := range TaskStatuses {
		if !status.IsValid() {
			t.Errorf("Expected status %q to be valid", status)
		}
	}

	for _, status := range []TaskStatus{"", "done", "TODO", "Completed"} {
		if status.IsValid() {
			t.Errorf("Expected status %q to be invalid", status)
		}
	}
}

func TestTaskPriorityIsValid(t *testing.T) {
	for _, priority := range []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh} {
		if !priority.IsValid() {
			t.Errorf("Expected priority %q to be valid", priority)
		}
	}

	for _, priority := range []TaskPriority{"", "urgent", "LOW"} {
		if priority.IsValid() {
			t.Errorf("Expected priority %q to be invalid", priority)
		}
	}
}
