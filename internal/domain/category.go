package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common category validation errors. Each wraps ErrValidation so the API
// layer maps them to a 400 response even when one escapes request-level
// checks.
var (
	ErrEmptyCategoryID    = fmt.Errorf("%w: category ID cannot be empty", ErrValidation)
	ErrEmptyCategoryName  = fmt.Errorf("%w: category name cannot be empty", ErrValidation)
	ErrEmptyCategoryOwner = fmt.Errorf("%w: category owner cannot be empty", ErrValidation)
)

// defaultCategoryColor is used when no color is supplied.
const defaultCategoryColor = "#000000"

// Category groups tasks for a single owner. Names are unique per owner.
// TaskCount is derived from the tasks table on read and never stored.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	UserID    uuid.UUID `json:"user"`
	TaskCount int       `json:"taskCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCategory creates a category owned by the given user.
// An empty color falls back to the default.
func NewCategory(userID uuid.UUID, name, color string) (*Category, error) {
	if color == "" {
		color = defaultCategoryColor
	}

	now := time.Now().UTC()
	category := &Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Color:     color,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	return category, nil
}

// Validate checks if the Category has valid data.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCategoryID
	}
	if c.Name == "" {
		return ErrEmptyCategoryName
	}
	if c.UserID == uuid.Nil {
		return ErrEmptyCategoryOwner
	}
	return nil
}
