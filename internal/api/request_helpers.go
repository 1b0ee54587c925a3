package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mwhitfield/taskboard-api/internal/api/shared"
	"github.com/mwhitfield/taskboard-api/internal/domain"
	"github.com/mwhitfield/taskboard-api/internal/store"
)

// dueDate query parameter layouts accepted by the task list endpoint.
var dueDateLayouts = []string{time.RFC3339, "2006-01-02"}

// newValidator builds the request validator, reporting fields by their JSON
// names so validation errors match the wire format.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSON decodes the request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// validationTagMessage maps a validation tag to the user-facing message.
func validationTagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("cannot exceed %s characters", fe.Param())
	case "oneof":
		return "has an invalid value"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "hexcolor":
		return "must be a hex color"
	default:
		return "is invalid"
	}
}

// fieldErrors converts a validator error into the envelope's field-error
// list. Non-validator errors fold into a single generic entry.
func fieldErrors(err error) []shared.FieldError {
	if errs, ok := err.(validator.ValidationErrors); ok {
		out := make([]shared.FieldError, 0, len(errs))
		for _, fe := range errs {
			out = append(out, shared.FieldError{
				Field:   fe.Field(),
				Message: validationTagMessage(fe),
			})
		}
		return out
	}
	return []shared.FieldError{{Field: "body", Message: "is invalid"}}
}

// getUserIDFromContext extracts the authenticated user's UUID from the
// request context, where the auth middleware placed it.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// parseTaskListParams reads the filter, sort and page query parameters of
// the task list endpoint. Unknown sort specs fall back to the default;
// malformed filter values are validation errors.
func parseTaskListParams(r *http.Request) (store.TaskListParams, error) {
	q := r.URL.Query()
	var params store.TaskListParams

	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.TaskStatus(strings.TrimSpace(part))
			if !status.IsValid() {
				return params, domain.NewValidationError("status", "has an invalid value", domain.ErrInvalidStatus)
			}
			params.Filter.Statuses = append(params.Filter.Statuses, status)
		}
	}

	if raw := q.Get("priority"); raw != "" {
		priority := domain.TaskPriority(raw)
		if !priority.IsValid() {
			return params, domain.NewValidationError("priority", "has an invalid value", domain.ErrInvalidPriority)
		}
		params.Filter.Priority = &priority
	}

	if raw := q.Get("category"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return params, domain.NewValidationError("category", "has invalid format", domain.ErrInvalidID)
		}
		params.Filter.CategoryID = &categoryID
	}

	params.Filter.Search = q.Get("search")

	if raw := q.Get("dueDate[gte]"); raw != "" {
		t, err := parseDueDate(raw)
		if err != nil {
			return params, domain.NewValidationError("dueDate[gte]", "has invalid date format", domain.ErrValidation)
		}
		params.Filter.DueAfter = &t
	}

	if raw := q.Get("dueDate[lte]"); raw != "" {
		t, err := parseDueDate(raw)
		if err != nil {
			return params, domain.NewValidationError("dueDate[lte]", "has invalid date format", domain.ErrValidation)
		}
		params.Filter.DueBefore = &t
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return params, domain.NewValidationError("page", "must be a number", domain.ErrValidation)
		}
		params.Page = page
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return params, domain.NewValidationError("limit", "must be a number", domain.ErrValidation)
		}
		params.Limit = limit
	}

	if raw := q.Get("sortBy"); raw != "" {
		field, direction, _ := strings.Cut(raw, ":")
		params.Sort = store.TaskSort{
			Field:      field,
			Descending: direction == "desc",
		}
	}

	params.Normalize()
	return params, nil
}

// parseDueDate accepts RFC 3339 timestamps or bare dates.
func parseDueDate(raw string) (time.Time, error) {
	var firstErr error
	for _, layout := range dueDateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
