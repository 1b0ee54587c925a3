package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mwhitfield/taskboard-api/internal/domain"
	"github.com/mwhitfield/taskboard-api/internal/platform/logger"
	"github.com/mwhitfield/taskboard-api/internal/store"
)

// PostgresCategoryStore implements the store.CategoryStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCategoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCategoryStore creates a new PostgreSQL implementation of the
// CategoryStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresCategoryStore(db store.DBTX, logger *slog.Logger) *PostgresCategoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCategoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "category_store")),
	}
}

// Ensure PostgresCategoryStore implements store.CategoryStore interface
var _ store.CategoryStore = (*PostgresCategoryStore)(nil)

// WithTx implements store.CategoryStore.WithTx.
func (s *PostgresCategoryStore) WithTx(tx *sql.Tx) store.CategoryStore {
	return &PostgresCategoryStore{db: tx, logger: s.logger}
}

// Create implements store.CategoryStore.Create.
// Returns store.ErrCategoryNameExists on a duplicate (name, user) pair.
func (s *PostgresCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		log.Warn("category validation failed during create",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()))
		return err
	}

	query := `
		INSERT INTO categories (id, name, color, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Color,
		category.UserID,
		category.CreatedAt,
		category.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Debug("duplicate category name for user",
				slog.String("name", category.Name),
				slog.String("user_id", category.UserID.String()))
			return store.ErrCategoryNameExists
		}
		log.Error("failed to create category",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()))
		return err
	}

	log.Info("category created successfully",
		slog.String("category_id", category.ID.String()),
		slog.String("user_id", category.UserID.String()))
	return nil
}

// GetByID implements store.CategoryStore.GetByID.
func (s *PostgresCategoryStore) GetByID(
	ctx context.Context,
	userID, id uuid.UUID,
) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, color, user_id, created_at, updated_at
		FROM categories
		WHERE id = $1 AND user_id = $2
	`

	var category domain.Category
	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&category.ID,
		&category.Name,
		&category.Color,
		&category.UserID,
		&category.CreatedAt,
		&category.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("category not found",
				slog.String("category_id", id.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrCategoryNotFound
		}
		log.Error("failed to get category by ID",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return nil, err
	}

	return &category, nil
}

// ListByUser implements store.CategoryStore.ListByUser.
// Task counts are derived with a join at read time rather than stored.
func (s *PostgresCategoryStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.id, c.name, c.color, c.user_id, COUNT(t.id), c.created_at, c.updated_at
		FROM categories c
		LEFT JOIN tasks t ON t.category_id = c.id
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list categories",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	categories := []*domain.Category{}
	for rows.Next() {
		var category domain.Category
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Color,
			&category.UserID,
			&category.TaskCount,
			&category.CreatedAt,
			&category.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan category row", slog.String("error", err.Error()))
			return nil, err
		}
		categories = append(categories, &category)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("listed categories",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(categories)))
	return categories, nil
}

// Delete implements store.CategoryStore.Delete.
func (s *PostgresCategoryStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`,
		id,
		userID,
	)
	if err != nil {
		log.Error("failed to delete category",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Debug("category not found for delete",
			slog.String("category_id", id.String()))
		return store.ErrCategoryNotFound
	}

	log.Info("category deleted successfully",
		slog.String("category_id", id.String()),
		slog.String("user_id", userID.String()))
	return nil
}
