package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/taskboard-api/internal/domain"
)

// Default page parameters applied when the caller supplies none.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// TaskFilter holds the optional constraints of a task list query.
// Zero-valued fields impose no constraint; populated fields AND-combine.
type TaskFilter struct {
	// Statuses, when non-empty, matches tasks whose status is any member.
	Statuses []domain.TaskStatus

	// Priority, when set, matches tasks with exactly this priority.
	Priority *domain.TaskPriority

	// CategoryID, when set, matches tasks assigned to this category.
	CategoryID *uuid.UUID

	// Search, when non-empty, matches titles containing this substring,
	// case-insensitively.
	Search string

	// DueAfter and DueBefore are inclusive bounds on the due date,
	// independently optional.
	DueAfter  *time.Time
	DueBefore *time.Time
}

// TaskSort names the column and direction of a task list query.
type TaskSort struct {
	Field      string
	Descending bool
}

// DefaultTaskSort is applied when the caller supplies no sort spec.
var DefaultTaskSort = TaskSort{Field: "dueDate"}

// TaskListParams bundles filter, sort and page parameters for List.
type TaskListParams struct {
	Filter TaskFilter
	Sort   TaskSort
	Page   int
	Limit  int
}

// Normalize applies defaults for out-of-range page parameters and a missing
// sort field.
func (p *TaskListParams) Normalize() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Sort.Field == "" {
		p.Sort = DefaultTaskSort
	}
}

// Pagination describes the position of a page within the full result set.
type Pagination struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// NewPagination computes page metadata for the given position and total.
// Pages is ceil(total/limit).
func NewPagination(page, limit, total int) Pagination {
	pages := (total + limit - 1) / limit
	return Pagination{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// StatusCounts is the fixed-shape per-status histogram. Implementations
// must populate every known status, zero-filled when absent.
type StatusCounts map[domain.TaskStatus]int

// TaskStore defines the interface for task data persistence.
// Every operation is scoped to the owning user: lookups for another user's
// tasks behave exactly like lookups for missing tasks.
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves the task with the given ID owned by userID.
	// Returns ErrTaskNotFound if no such task exists for this owner.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)

	// Update persists all mutable fields of the task, matched by ID and
	// owner. Returns ErrTaskNotFound if no row matches.
	Update(ctx context.Context, task *domain.Task) error

	// UpdatePriority sets only the priority of the matched task and returns
	// the updated row. Returns ErrTaskNotFound if no row matches.
	UpdatePriority(
		ctx context.Context,
		userID, id uuid.UUID,
		priority domain.TaskPriority,
	) (*domain.Task, error)

	// Delete removes the matched task. Returns ErrTaskNotFound if no row
	// matches.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// List returns one page of the owner's tasks matching the filter, plus
	// the total number of matching rows.
	List(ctx context.Context, userID uuid.UUID, params TaskListParams) ([]*domain.Task, int, error)

	// CountByStatus returns the owner's status histogram, independent of
	// any filter. All known statuses are present, zero-filled.
	CountByStatus(ctx context.Context, userID uuid.UUID) (StatusCounts, error)

	// DetachCategory clears the category reference on every task of the
	// owner that references the category, returning the number of tasks
	// touched.
	DetachCategory(ctx context.Context, userID, categoryID uuid.UUID) (int64, error)

	// WithTx returns a TaskStore bound to the given transaction, so task
	// mutations can participate in multi-store transactions.
	WithTx(tx *sql.Tx) TaskStore
}
