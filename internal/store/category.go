package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mwhitfield/taskboard-api/internal/domain"
)

// CategoryStore defines the interface for category data persistence.
// All operations are scoped to the owning user.
type CategoryStore interface {
	// Create saves a new category. Returns ErrCategoryNameExists if the
	// owner already has a category with this name.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves the category with the given ID owned by userID.
	// Returns ErrCategoryNotFound if no such category exists for this owner.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Category, error)

	// ListByUser returns all of the owner's categories with their derived
	// task counts.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)

	// Delete removes the matched category. Returns ErrCategoryNotFound if
	// no row matches. Callers are responsible for detaching referencing
	// tasks in the same transaction.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// WithTx returns a CategoryStore bound to the given transaction.
	WithTx(tx *sql.Tx) CategoryStore
}
