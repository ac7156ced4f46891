// Package apierrors renders failures as JSON bodies of the form
// {"error": message, "error_code": code, "detalle": details}.
package apierrors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aouyang1/go-regress/design"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"error"`
	Details    any    `json:"detalle,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// ValidationError names a request field that failed validation
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	ErrInvalidRequest    = New(http.StatusBadRequest, "INVALID_REQUEST", "invalid request format")
	ErrMissingParameter  = New(http.StatusBadRequest, "MISSING_PARAMETER", "required parameter is missing")
	ErrNotFound          = New(http.StatusNotFound, "NOT_FOUND", "resource not found")
	ErrPayloadTooLarge   = New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "rate limit exceeded")
	ErrInternalServer    = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error")
)

// InvalidRequestWithError wraps a decoding failure.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "invalid request format", err.Error())
}

// Validation reports failed field validations.
func Validation(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed", errs)
}

// BadRequest reports a caller error with a free form message.
func BadRequest(code string, err error) *APIError {
	return New(http.StatusBadRequest, code, err.Error())
}

// NotFound reports a missing resource.
func NotFound(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), resource)
}

// FromInvalidInput converts a design matrix validation failure. Length mismatches carry the
// observed length of every column as details.
func FromInvalidInput(e *design.InvalidInputError) *APIError {
	apiErr := New(http.StatusBadRequest, "INVALID_INPUT", e.Reason)
	switch {
	case len(e.Lengths) > 0:
		apiErr.Details = e.Lengths
	case e.Column != "" || len(e.Rows) > 0:
		apiErr.Details = map[string]any{
			"column": e.Column,
			"rows":   e.Rows,
		}
	}
	return apiErr
}

// Mapper converts a domain error into an APIError. It returns nil when it does not
// recognize the error.
type Mapper func(err error) *APIError

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger  *slog.Logger
	mappers []Mapper
}

func NewErrorHandler(logger *slog.Logger, mappers ...Mapper) *ErrorHandler {
	return &ErrorHandler{
		logger:  logger.With(slog.String("component", "error_handler")),
		mappers: mappers,
	}
}

// HandleError logs the error and renders its APIError form.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	apiErr := h.ToAPIError(err)
	level := slog.LevelWarn
	if apiErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", apiErr.StatusCode),
	)

	if err := render.Render(w, r, apiErr); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error", slog.String("error", err.Error()))
	}
}

// ToAPIError converts any error into an APIError. Unknown errors become a 500 without leaking
// their message.
func (h *ErrorHandler) ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var invalidErr *design.InvalidInputError
	if errors.As(err, &invalidErr) {
		return FromInvalidInput(invalidErr)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return New(http.StatusGatewayTimeout, "TIMEOUT", "request took too long to process")
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return NewWithDetails(ErrPayloadTooLarge.StatusCode, ErrPayloadTooLarge.ErrorCode, ErrPayloadTooLarge.Message, maxBytesErr.Limit)
	}

	for _, m := range h.mappers {
		if mapped := m(err); mapped != nil {
			return mapped
		}
	}
	return ErrInternalServer
}
