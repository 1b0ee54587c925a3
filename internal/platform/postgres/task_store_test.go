package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/taskboard-api/internal/domain"
	"github.com/mwhitfield/taskboard-api/internal/store"
)

func TestBuildTaskFilterClause(t *testing.T) {
	userID := uuid.New()
	categoryID := uuid.New()
	priority := domain.TaskPriorityHigh
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		filter     store.TaskFilter
		wantClause string
		wantArgs   []any
	}{
		{
			name:       "no filters leaves only the owner constraint",
			filter:     store.TaskFilter{},
			wantClause: "t.user_id = $1",
			wantArgs:   []any{userID},
		},
		{
			name: "single status",
			filter: store.TaskFilter{
				Statuses: []domain.TaskStatus{domain.TaskStatusTodo},
			},
			wantClause: "t.user_id = $1 AND t.status IN ($2)",
			wantArgs:   []any{userID, "todo"},
		},
		{
			name: "multiple statuses get one placeholder each",
			filter: store.TaskFilter{
				Statuses: []domain.TaskStatus{domain.TaskStatusTodo, domain.TaskStatusInProgress},
			},
			wantClause: "t.user_id = $1 AND t.status IN ($2, $3)",
			wantArgs:   []any{userID, "todo", "in-progress"},
		},
		{
			name: "priority and category",
			filter: store.TaskFilter{
				Priority:   &priority,
				CategoryID: &categoryID,
			},
			wantClause: "t.user_id = $1 AND t.priority = $2 AND t.category_id = $3",
			wantArgs:   []any{userID, "high", categoryID},
		},
		{
			name: "search",
			filter: store.TaskFilter{
				Search: "report",
			},
			wantClause: "t.user_id = $1 AND t.title ILIKE '%' || $2 || '%'",
			wantArgs:   []any{userID, "report"},
		},
		{
			name: "due date range",
			filter: store.TaskFilter{
				DueAfter:  &after,
				DueBefore: &before,
			},
			wantClause: "t.user_id = $1 AND t.due_date >= $2 AND t.due_date <= $3",
			wantArgs:   []any{userID, after, before},
		},
		{
			name: "all filters keep placeholder numbering in sync",
			filter: store.TaskFilter{
				Statuses:   []domain.TaskStatus{domain.TaskStatusCompleted, domain.TaskStatusArchived},
				Priority:   &priority,
				CategoryID: &categoryID,
				Search:     "meeting",
				DueAfter:   &after,
				DueBefore:  &before,
			},
			wantClause: "t.user_id = $1 AND t.status IN ($2, $3) AND t.priority = $4 AND " +
				"t.category_id = $5 AND t.title ILIKE '%' || $6 || '%' AND " +
				"t.due_date >= $7 AND t.due_date <= $8",
			wantArgs: []any{userID, "completed", "archived", "high", categoryID, "meeting", after, before},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clause, args := buildTaskFilterClause(userID, tc.filter)
			assert.Equal(t, tc.wantClause, clause)
			require.Len(t, args, len(tc.wantArgs))
			assert.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestTaskSortClause(t *testing.T) {
	tests := []struct {
		name string
		sort store.TaskSort
		want string
	}{
		{"default field ascending", store.TaskSort{Field: "dueDate"}, "t.due_date ASC"},
		{"default field descending", store.TaskSort{Field: "dueDate", Descending: true}, "t.due_date DESC"},
		{"createdAt maps to snake case", store.TaskSort{Field: "createdAt", Descending: true}, "t.created_at DESC"},
		{"updatedAt maps to snake case", store.TaskSort{Field: "updatedAt"}, "t.updated_at ASC"},
		{"title passes through", store.TaskSort{Field: "title"}, "t.title ASC"},
		{"status passes through", store.TaskSort{Field: "status", Descending: true}, "t.status DESC"},
		{"unknown field falls back to default ascending", store.TaskSort{Field: "user_id; DROP TABLE tasks"}, "t.due_date ASC"},
		{"unknown field ignores direction", store.TaskSort{Field: "nope", Descending: true}, "t.due_date ASC"},
		{"empty field falls back", store.TaskSort{}, "t.due_date ASC"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, taskSortClause(tc.sort))
		})
	}
}

// fakeRow feeds canned column values to scanTask.
type fakeRow struct {
	values []any
}

func (r *fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch target := d.(type) {
		case *uuid.UUID:
			*target = r.values[i].(uuid.UUID)
		case *string:
			*target = r.values[i].(string)
		case *[]byte:
			*target = r.values[i].([]byte)
		case *time.Time:
			*target = r.values[i].(time.Time)
		default:
			// sql.Null* values and similar scanners
			if scanner, ok := d.(interface{ Scan(any) error }); ok {
				if err := scanner.Scan(r.values[i]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func TestScanTask(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()
	now := time.Now().UTC()

	row := &fakeRow{values: []any{
		id,
		"Quarterly review",
		"prepare slides",
		"completed",
		"high",
		now,              // due_date
		nil,              // category_id
		nil,              // category name
		nil,              // category color
		[]byte(`["work","q3"]`),
		2.5,              // estimated_hours
		userID,
		now,              // completed_at
		now,
		now,
	}}

	task, err := scanTask(row)
	require.NoError(t, err)

	assert.Equal(t, id, task.ID)
	assert.Equal(t, "Quarterly review", task.Title)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	assert.Equal(t, domain.TaskPriorityHigh, task.Priority)
	require.NotNil(t, task.DueDate)
	assert.Nil(t, task.CategoryID)
	assert.Nil(t, task.Category)
	assert.Equal(t, []string{"work", "q3"}, task.Tags)
	require.NotNil(t, task.EstimatedHours)
	assert.Equal(t, 2.5, *task.EstimatedHours)
	require.NotNil(t, task.CompletedAt)
}

func TestScanTaskResolvesCategory(t *testing.T) {
	categoryID := uuid.New()
	now := time.Now().UTC()

	row := &fakeRow{values: []any{
		uuid.New(),
		"Categorized",
		"",
		"todo",
		"medium",
		nil,                 // due_date
		categoryID.String(), // category_id
		"Work",              // category name
		"#ff0000",           // category color
		[]byte(`[]`),
		nil, // estimated_hours
		uuid.New(),
		nil, // completed_at
		now,
		now,
	}}

	task, err := scanTask(row)
	require.NoError(t, err)

	require.NotNil(t, task.CategoryID)
	assert.Equal(t, categoryID, *task.CategoryID)
	require.NotNil(t, task.Category)
	assert.Equal(t, categoryID, task.Category.ID)
	assert.Equal(t, "Work", task.Category.Name)
	assert.Equal(t, "#ff0000", task.Category.Color)
}

func TestScanTaskEmptyTags(t *testing.T) {
	row := &fakeRow{values: []any{
		uuid.New(),
		"Untagged",
		"",
		"todo",
		"medium",
		nil, // due_date
		nil, // category_id
		nil, // category name
		nil, // category color
		[]byte(nil),
		nil, // estimated_hours
		uuid.New(),
		nil, // completed_at
		time.Now().UTC(),
		time.Now().UTC(),
	}}

	task, err := scanTask(row)
	require.NoError(t, err)

	// Tags always serialize as an array, never null.
	assert.NotNil(t, task.Tags)
	assert.Empty(t, task.Tags)
	assert.Nil(t, task.DueDate)
	assert.Nil(t, task.EstimatedHours)
	assert.Nil(t, task.CompletedAt)
}
