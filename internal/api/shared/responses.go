package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the uniform JSON response body: {success, message?, data?}.
// Validation failures additionally carry a field-level errors array.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// writeJSON writes the envelope with the given status code.
func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithData writes a success envelope carrying data.
func RespondWithData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// RespondWithMessage writes a success envelope carrying only a message.
func RespondWithMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, Envelope{Success: true, Message: message})
}

// RespondWithMessageAndData writes a success envelope carrying both a
// message and data.
func RespondWithMessageAndData(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	message string,
	data any,
) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// RespondWithError writes a failure envelope with the given message.
// Server errors are logged with the request's trace ID; client errors at
// debug level only.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}
	slog.LogAttrs(r.Context(), logLevel, "API error response",
		slog.Int("status_code", status),
		slog.String("message", message),
		slog.String("trace_id", GetTraceID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method))

	writeJSON(w, status, Envelope{Success: false, Message: message})
}

// RespondWithValidationErrors writes the 400 validation envelope:
// {success:false, message:"Validation Error", errors:[{field,message},...]}.
func RespondWithValidationErrors(w http.ResponseWriter, r *http.Request, errs []FieldError) {
	writeJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: "Validation Error",
		Errors:  errs,
	})
}
