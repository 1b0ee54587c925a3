package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/taskboard-api/internal/domain"
	"github.com/mwhitfield/taskboard-api/internal/platform/logger"
	"github.com/mwhitfield/taskboard-api/internal/store"
)

// taskColumns is the canonical select list for task rows, including the
// joined category name and color.
const taskColumns = `t.id, t.title, t.description, t.status, t.priority, t.due_date,
	t.category_id, c.name, c.color, t.tags, t.estimated_hours, t.user_id,
	t.completed_at, t.created_at, t.updated_at`

// taskFrom joins the category reference so reads return its name and color.
const taskFrom = `tasks t LEFT JOIN categories c ON c.id = t.category_id`

// taskSortColumns whitelists the sortable API field names and maps them to
// columns. Anything outside this map falls back to the default sort.
var taskSortColumns = map[string]string{
	"dueDate":   "t.due_date",
	"createdAt": "t.created_at",
	"updatedAt": "t.updated_at",
	"title":     "t.title",
	"status":    "t.status",
	"priority":  "t.priority",
}

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create.
// Returns store.ErrInvalidEntity if the owner does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO tasks (id, title, description, status, priority, due_date,
			category_id, tags, estimated_hours, user_id, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CategoryID,
		tags,
		task.EstimatedHours,
		task.UserID,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()))
			return fmt.Errorf("%w: referenced entity not found", store.ErrInvalidEntity)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE t.id = $1 AND t.user_id = $2`, taskColumns, taskFrom)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found",
				slog.String("task_id", id.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	return task, nil
}

// Update implements store.TaskStore.Update.
// All mutable fields are written; the row is matched by ID and owner.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
			due_date = $5, category_id = $6, tags = $7, estimated_hours = $8,
			completed_at = $9, updated_at = $10
		WHERE id = $11 AND user_id = $12
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CategoryID,
		tags,
		task.EstimatedHours,
		task.CompletedAt,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)

	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}
	if rowsAffected == 0 {
		log.Debug("task not found for update",
			slog.String("task_id", task.ID.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// UpdatePriority implements store.TaskStore.UpdatePriority.
// Only the priority column changes; the completion timestamp is untouched
// since priority changes never complete a task. The updated row is re-read
// so the returned task carries the resolved category reference.
func (s *PostgresTaskStore) UpdatePriority(
	ctx context.Context,
	userID, id uuid.UUID,
	priority domain.TaskPriority,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE tasks SET priority = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		priority,
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		log.Error("failed to update task priority",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		log.Debug("task not found for priority update",
			slog.String("task_id", id.String()))
		return nil, store.ErrTaskNotFound
	}

	log.Info("task priority updated successfully",
		slog.String("task_id", id.String()),
		slog.String("priority", string(priority)))
	return s.GetByID(ctx, userID, id)
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		id,
		userID,
	)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Debug("task not found for delete",
			slog.String("task_id", id.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully",
		slog.String("task_id", id.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// List implements store.TaskStore.List.
// It executes a page query and a count query built from the same filter
// clause, so the pagination total always matches the filtered set.
func (s *PostgresTaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	params store.TaskListParams,
) ([]*domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	params.Normalize()

	where, args := buildTaskFilterClause(userID, params.Filter)

	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		taskColumns,
		taskFrom,
		where,
		taskSortClause(params.Sort),
		len(args)+1,
		len(args)+2,
	)
	pageArgs := append(append([]any{}, args...), params.Limit, (params.Page-1)*params.Limit)

	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, 0, err
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tasks t WHERE %s`, where)
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, err
	}

	log.Debug("listed tasks",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(tasks)),
		slog.Int("total", total))
	return tasks, total, nil
}

// CountByStatus implements store.TaskStore.CountByStatus.
// The histogram is scoped to the owner and independent of any list filter;
// every known status bucket is present, zero-filled when absent.
func (s *PostgresTaskStore) CountByStatus(
	ctx context.Context,
	userID uuid.UUID,
) (store.StatusCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status`,
		userID,
	)
	if err != nil {
		log.Error("failed to count tasks by status",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	counts := store.StatusCounts{}
	for _, status := range domain.TaskStatuses {
		counts[status] = 0
	}

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.TaskStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// DetachCategory implements store.TaskStore.DetachCategory.
func (s *PostgresTaskStore) DetachCategory(
	ctx context.Context,
	userID, categoryID uuid.UUID,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE tasks SET category_id = NULL, updated_at = $1 WHERE user_id = $2 AND category_id = $3`,
		time.Now().UTC(),
		userID,
		categoryID,
	)
	if err != nil {
		log.Error("failed to detach category from tasks",
			slog.String("error", err.Error()),
			slog.String("category_id", categoryID.String()))
		return 0, err
	}

	detached, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	log.Info("detached category from tasks",
		slog.String("category_id", categoryID.String()),
		slog.Int64("task_count", detached))
	return detached, nil
}

// buildTaskFilterClause renders the AND-combined WHERE clause of a task list
// query. The owner constraint is always first; absent filter fields add no
// constraint. Columns carry the tasks alias since list reads join the
// categories table. Returns the clause and its positional arguments.
func buildTaskFilterClause(userID uuid.UUID, filter store.TaskFilter) (string, []any) {
	clauses := []string{"t.user_id = $1"}
	args := []any{userID}

	next := func() int { return len(args) + 1 }

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			placeholders = append(placeholders, fmt.Sprintf("$%d", next()))
			args = append(args, string(status))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.Priority != nil {
		clauses = append(clauses, fmt.Sprintf("t.priority = $%d", next()))
		args = append(args, string(*filter.Priority))
	}

	if filter.CategoryID != nil {
		clauses = append(clauses, fmt.Sprintf("t.category_id = $%d", next()))
		args = append(args, *filter.CategoryID)
	}

	if filter.Search != "" {
		clauses = append(clauses, fmt.Sprintf("t.title ILIKE '%%' || $%d || '%%'", next()))
		args = append(args, filter.Search)
	}

	if filter.DueAfter != nil {
		clauses = append(clauses, fmt.Sprintf("t.due_date >= $%d", next()))
		args = append(args, *filter.DueAfter)
	}

	if filter.DueBefore != nil {
		clauses = append(clauses, fmt.Sprintf("t.due_date <= $%d", next()))
		args = append(args, *filter.DueBefore)
	}

	return strings.Join(clauses, " AND "), args
}

// taskSortClause renders the ORDER BY expression for a whitelisted sort
// field. Unknown fields fall back to the default sort.
func taskSortClause(sort store.TaskSort) string {
	column, ok := taskSortColumns[sort.Field]
	if !ok {
		column = taskSortColumns[store.DefaultTaskSort.Field]
		return column + " ASC"
	}
	if sort.Descending {
		return column + " DESC"
	}
	return column + " ASC"
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row, converting nullable columns, resolving the
// joined category reference and decoding the tags payload.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task           domain.Task
		status         string
		priority       string
		dueDate        sql.NullTime
		categoryID     uuid.NullUUID
		categoryName   sql.NullString
		categoryColor  sql.NullString
		tags           []byte
		estimatedHours sql.NullFloat64
		completedAt    sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&dueDate,
		&categoryID,
		&categoryName,
		&categoryColor,
		&tags,
		&estimatedHours,
		&task.UserID,
		&completedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	if dueDate.Valid {
		due := dueDate.Time
		task.DueDate = &due
	}
	if categoryID.Valid {
		id := categoryID.UUID
		task.CategoryID = &id
		task.Category = &domain.TaskCategory{
			ID:    id,
			Name:  categoryName.String,
			Color: categoryColor.String,
		}
	}
	if estimatedHours.Valid {
		hours := estimatedHours.Float64
		task.EstimatedHours = &hours
	}
	if completedAt.Valid {
		completed := completedAt.Time
		task.CompletedAt = &completed
	}

	task.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &task.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}

	return &task, nil
}
