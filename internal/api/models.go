package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
// Password policy (length and digit requirement) is enforced separately by
// the domain layer so its field-level messages match the rest of the API.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenResponse is the data payload for authentication endpoints.
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// TaskRequest defines the payload for task creation and full update.
// The same shape serves both, mirroring the shared validation of the two
// endpoints.
type TaskRequest struct {
	Title          string     `json:"title"          validate:"required,max=200"`
	Description    string     `json:"description"`
	Status         string     `json:"status"         validate:"omitempty,oneof=todo in-progress completed archived"`
	Priority       string     `json:"priority"       validate:"omitempty,oneof=low medium high"`
	DueDate        *time.Time `json:"dueDate"`
	Category       *uuid.UUID `json:"category"`
	Tags           []string   `json:"tags"`
	EstimatedHours *float64   `json:"estimatedHours" validate:"omitempty,gte=0"`
}

// UpdateTaskStatusRequest defines the payload for the status patch endpoint.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=todo in-progress completed archived"`
}

// UpdateTaskPriorityRequest defines the payload for the priority patch endpoint.
type UpdateTaskPriorityRequest struct {
	Priority string `json:"priority" validate:"required,oneof=low medium high"`
}

// CreateCategoryRequest defines the payload for category creation.
type CreateCategoryRequest struct {
	Name  string `json:"name"  validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}
