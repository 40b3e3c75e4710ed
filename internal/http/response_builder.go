package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/exchange"
	applog "github.com/jc9677/budget-app-2/internal/log"
	"github.com/jc9677/budget-app-2/internal/services"
	"github.com/jc9677/budget-app-2/internal/storage"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	data       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Attachment marks the response as a file download named filename.
func (b *JSONResponseBuilder) Attachment(filename string) *JSONResponseBuilder {
	return b.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.data == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Data(v).Write(w)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// errorStatus maps a service error to its HTTP status and client message.
// Unmapped errors become a generic 500.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errMalformedBody),
		errors.Is(err, exchange.ErrMalformedSnapshot),
		errors.Is(err, exchange.ErrUnsupportedVersion),
		errors.Is(err, services.ErrInvalidMode),
		errors.Is(err, services.ErrInvalidScope):
		return http.StatusBadRequest, err.Error()
	case core.IsValidationError(err),
		errors.Is(err, services.ErrInvalidWindow),
		errors.Is(err, services.ErrNoOccurrence):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, services.ErrOverrideUnsupported):
		return http.StatusNotImplemented, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeServiceError writes the mapped error response, logging server-side failures.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, op, nil)
	}
	writeError(w, status, msg)
}
