package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mwhitfield/taskboard-api/internal/domain"
	"github.com/mwhitfield/taskboard-api/internal/platform/logger"
	"github.com/mwhitfield/taskboard-api/internal/store"
)

// CategoryService defines category management operations, scoped to the
// calling user.
type CategoryService interface {
	// Create persists a new category. Returns store.ErrCategoryNameExists
	// when the owner already has a category with this name.
	Create(ctx context.Context, userID uuid.UUID, name, color string) (*domain.Category, error)

	// List returns all of the owner's categories with derived task counts.
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)

	// Delete removes the owner's category, clearing the category reference
	// on every task that pointed at it. Detach and delete run in a single
	// transaction, so a failure leaves no task referencing a missing
	// category.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// categoryService is the production CategoryService implementation.
type categoryService struct {
	db            *sql.DB
	categoryStore store.CategoryStore
	taskStore     store.TaskStore
	logger        *slog.Logger
}

// NewCategoryService creates a CategoryService. The database handle is used
// to run the cascade-detach delete transactionally across both stores.
func NewCategoryService(
	db *sql.DB,
	categoryStore store.CategoryStore,
	taskStore store.TaskStore,
	logger *slog.Logger,
) (CategoryService, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if categoryStore == nil {
		return nil, fmt.Errorf("category store cannot be nil")
	}
	if taskStore == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &categoryService{
		db:            db,
		categoryStore: categoryStore,
		taskStore:     taskStore,
		logger:        logger.With(slog.String("component", "category_service")),
	}, nil
}

// Create implements CategoryService.Create.
func (s *categoryService) Create(
	ctx context.Context,
	userID uuid.UUID,
	name, color string,
) (*domain.Category, error) {
	category, err := domain.NewCategory(userID, name, color)
	if err != nil {
		return nil, err
	}

	if err := s.categoryStore.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// List implements CategoryService.List.
func (s *categoryService) List(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Category, error) {
	return s.categoryStore.ListByUser(ctx, userID)
}

// Delete implements CategoryService.Delete.
func (s *categoryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		detached, err := s.taskStore.WithTx(tx).DetachCategory(ctx, userID, id)
		if err != nil {
			return err
		}

		if err := s.categoryStore.WithTx(tx).Delete(ctx, userID, id); err != nil {
			return err
		}

		log.Info("category deleted with cascade-detach",
			slog.String("category_id", id.String()),
			slog.Int64("detached_tasks", detached))
		return nil
	})
}
