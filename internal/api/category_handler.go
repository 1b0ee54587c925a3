package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mwhitfield/taskboard-api/internal/api/shared"
	"github.com/mwhitfield/taskboard-api/internal/platform/logger"
	"github.com/mwhitfield/taskboard-api/internal/service"
)

// CategoryHandler handles category-related HTTP requests.
type CategoryHandler struct {
	categoryService service.CategoryService
	validator       *validator.Validate
	logger          *slog.Logger
}

// NewCategoryHandler creates a new CategoryHandler with the given dependencies.
func NewCategoryHandler(categoryService service.CategoryService, logger *slog.Logger) *CategoryHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &CategoryHandler{
		categoryService: categoryService,
		validator:       newValidator(),
		logger:          logger.With(slog.String("component", "category_handler")),
	}
}

// List handles GET /api/categories. Task counts are computed at read time.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	categories, err := h.categoryService.List(ctx, userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, map[string]any{"categories": categories})
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateCategoryRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, fieldErrors(err))
		return
	}

	category, err := h.categoryService.Create(ctx, userID, req.Name, req.Color)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("category created",
		slog.String("category_id", category.ID.String()),
		slog.String("user_id", userID.String()))

	shared.RespondWithMessageAndData(w, r, http.StatusCreated, "Category created successfully",
		map[string]any{"category": category})
}

// Delete handles DELETE /api/categories/{id}. Tasks referencing the
// category are detached, not deleted.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid category ID")
		return
	}

	if err := h.categoryService.Delete(ctx, userID, id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("category deleted",
		slog.String("category_id", id.String()),
		slog.String("user_id", userID.String()))

	shared.RespondWithMessage(w, r, http.StatusOK, "Category deleted")
}
