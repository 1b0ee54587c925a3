package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mwhitfield/taskboard-api/internal/domain"
	"github.com/mwhitfield/taskboard-api/internal/store"
)

// mockTaskStore implements store.TaskStore with overridable functions.
type mockTaskStore struct {
	createFn         func(ctx context.Context, task *domain.Task) error
	getByIDFn        func(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)
	updateFn         func(ctx context.Context, task *domain.Task) error
	updatePriorityFn func(ctx context.Context, userID, id uuid.UUID, priority domain.TaskPriority) (*domain.Task, error)
	deleteFn         func(ctx context.Context, userID, id uuid.UUID) error
	listFn           func(ctx context.Context, userID uuid.UUID, params store.TaskListParams) ([]*domain.Task, int, error)
	countByStatusFn  func(ctx context.Context, userID uuid.UUID) (store.StatusCounts, error)
	detachCategoryFn func(ctx context.Context, userID, categoryID uuid.UUID) (int64, error)
}

func (m *mockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	return m.createFn(ctx, task)
}

func (m *mockTaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	return m.getByIDFn(ctx, userID, id)
}

func (m *mockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	return m.updateFn(ctx, task)
}

func (m *mockTaskStore) UpdatePriority(
	ctx context.Context,
	userID, id uuid.UUID,
	priority domain.TaskPriority,
) (*domain.Task, error) {
	return m.updatePriorityFn(ctx, userID, id, priority)
}

func (m *mockTaskStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.deleteFn(ctx, userID, id)
}

func (m *mockTaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	params store.TaskListParams,
) ([]*domain.Task, int, error) {
	return m.listFn(ctx, userID, params)
}

func (m *mockTaskStore) CountByStatus(
	ctx context.Context,
	userID uuid.UUID,
) (store.StatusCounts, error) {
	return m.countByStatusFn(ctx, userID)
}

func (m *mockTaskStore) DetachCategory(
	ctx context.Context,
	userID, categoryID uuid.UUID,
) (int64, error) {
	return m.detachCategoryFn(ctx, userID, categoryID)
}

func (m *mockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

// mockCategoryStore implements store.CategoryStore with overridable functions.
type mockCategoryStore struct {
	createFn     func(ctx context.Context, category *domain.Category) error
	getByIDFn    func(ctx context.Context, userID, id uuid.UUID) (*domain.Category, error)
	listByUserFn func(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)
	deleteFn     func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	return m.createFn(ctx, category)
}

func (m *mockCategoryStore) GetByID(
	ctx context.Context,
	userID, id uuid.UUID,
) (*domain.Category, error) {
	return m.getByIDFn(ctx, userID, id)
}

func (m *mockCategoryStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Category, error) {
	return m.listByUserFn(ctx, userID)
}

func (m *mockCategoryStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.deleteFn(ctx, userID, id)
}

func (m *mockCategoryStore) WithTx(tx *sql.Tx) store.CategoryStore {
	return m
}

// mockPublisher records every published event.
type mockPublisher struct {
	publishErr error
	events     []publishedEvent
}

type publishedEvent struct {
	kind    string
	payload any
}

func (m *mockPublisher) Publish(kind string, payload any) error {
	m.events = append(m.events, publishedEvent{kind: kind, payload: payload})
	return m.publishErr
}
