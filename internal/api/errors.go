// errors.go - Structured error handling for API responses
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/labstack/echo/v4"

	"github.com/ehcp-review/backend/internal/ingest"
	"github.com/ehcp-review/backend/internal/review"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewForbiddenError creates a 403 Forbidden error
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    "FORBIDDEN",
		Message: message,
	}
}

// NewMissingUploadError creates a 400 error naming the absent uploads
func NewMissingUploadError(err *review.MissingUploadError) *APIError {
	roles := make([]string, len(err.Roles))
	for i, r := range err.Roles {
		roles[i] = string(r)
	}
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "MISSING_UPLOAD",
		Message: err.Error(),
		Details: strings.Join(roles, ","),
	}
}

// NewUnsupportedFormatError creates a 415 error for a file whose suffix has no parser
func NewUnsupportedFormatError(name string) *APIError {
	return &APIError{
		Status:  http.StatusUnsupportedMediaType,
		Code:    "UNSUPPORTED_FORMAT",
		Message: fmt.Sprintf("unsupported file format: %s (supported: %s)", name, strings.Join(ingest.SupportedExtensions(), ", ")),
	}
}

// NewIngestionError creates a 422 error for a file that could not be read
func NewIngestionError(message string, cause error) *APIError {
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "INGESTION_FAILED",
		Message: message,
		Details: cause.Error(),
	}
}

// NewAssemblyError creates a 422 error for tables that could not become reports
func NewAssemblyError(cause error) *APIError {
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "ASSEMBLY_FAILED",
		Message: "error generating reports",
		Details: cause.Error(),
	}
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// FromGenerationError maps a report generation failure to an APIError.
func FromGenerationError(err error) *APIError {
	var missing *review.MissingUploadError
	var failure *review.IngestFailure
	var assembly *review.AssemblyError
	var ingestErr *ingest.Error

	switch {
	case errors.As(err, &missing):
		return NewMissingUploadError(missing)
	case errors.As(err, &failure):
		if errors.Is(err, ingest.ErrUnsupportedFormat) {
			apiErr := NewUnsupportedFormatError(fileNameOf(err))
			apiErr.Details = string(failure.Role)
			return apiErr
		}
		return NewIngestionError(fmt.Sprintf("error loading %s file", failure.Role), failure.Err)
	case errors.As(err, &assembly):
		return NewAssemblyError(assembly.Err)
	case errors.As(err, &ingestErr):
		if errors.Is(err, ingest.ErrUnsupportedFormat) {
			return NewUnsupportedFormatError(ingestErr.FileName)
		}
		return NewIngestionError(fmt.Sprintf("error loading %s", ingestErr.FileName), ingestErr.Err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewServiceUnavailableError("request cancelled before reports were generated")
	default:
		return NewInternalError("report generation failed", err)
	}
}

func fileNameOf(err error) string {
	var ingestErr *ingest.Error
	if errors.As(err, &ingestErr) {
		return ingestErr.FileName
	}
	return ""
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
		if apiErr.Status == http.StatusInternalServerError && !isDevelopment() {
			apiErr = &APIError{Status: e.Status, Code: e.Code, Message: e.Message}
		}
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
		}
		// In development, include error details
		if isDevelopment() {
			apiErr.Details = err.Error()
		}
	}

	// Send JSON response
	if !c.Response().Committed {
		c.JSON(apiErr.Status, apiErr)
	}
}

var development atomic.Bool

// SetDevelopment toggles inclusion of internal error details in responses.
func SetDevelopment(enabled bool) {
	development.Store(enabled)
}

// isDevelopment returns true if running in development mode
func isDevelopment() bool {
	return development.Load()
}
