// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/animate"
	"github.com/insight-studio/backend/internal/chart"
	"github.com/insight-studio/backend/internal/insight"
	"github.com/insight-studio/backend/internal/llm"
	"github.com/insight-studio/backend/internal/session"
	"github.com/insight-studio/backend/internal/slides"
	"github.com/insight-studio/backend/internal/storage"
	"github.com/insight-studio/backend/internal/table"
	"github.com/insight-studio/backend/internal/video"
)

// ShowErrorDetails controls whether unexpected errors carry their message
// in the Details field. The serve command turns it off for release builds.
var ShowErrorDetails = true

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

func withCause(e *APIError, cause error) *APIError {
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}, cause)
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewInvalidInputError creates a 400 error for a dataset or column the
// request cannot be applied to.
func NewInvalidInputError(message string, cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusBadRequest,
		Code:    "INVALID_INPUT",
		Message: message,
	}, cause)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewNoDatasetError creates a 409 error for requests that need a loaded dataset.
func NewNoDatasetError() *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "NO_DATASET",
		Message: "upload a dataset first",
	}
}

// NewRenderError creates a 422 error for a chart that could not be built.
func NewRenderError(cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "RENDER_ERROR",
		Message: "could not create visualization",
	}, cause)
}

// NewEncodeError creates a 500 error for a failed video export.
func NewEncodeError(cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusInternalServerError,
		Code:    "ENCODE_ERROR",
		Message: "could not encode video",
	}, cause)
}

// NewInsightsUnavailableError creates a 502 error for a failed completion.
func NewInsightsUnavailableError(cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusBadGateway,
		Code:    "INSIGHTS_UNAVAILABLE",
		Message: insight.ErrUnavailable.Error(),
	}, cause)
}

// NewFeatureDisabledError creates a 503 error for a feature whose
// configuration is missing.
func NewFeatureDisabledError(feature string, cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "FEATURE_DISABLED",
		Message: fmt.Sprintf("%s is not configured", feature),
	}, cause)
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}, cause)
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// FromError maps a domain error onto its API error. It returns nil for
// errors outside the known taxonomy.
func FromError(err error) *APIError {
	var (
		apiErr    *APIError
		renderErr *chart.RenderError
		colErr    *table.ColumnError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, llm.ErrMissingAPIKey):
		return NewFeatureDisabledError("the language model", err)
	case errors.Is(err, video.ErrEncoderUnavailable):
		return NewFeatureDisabledError("video export", err)
	case errors.Is(err, insight.ErrUnavailable):
		return NewInsightsUnavailableError(err)
	case errors.Is(err, table.ErrEmptyTable):
		return NewInvalidInputError("dataset has no data rows", err)
	case errors.Is(err, chart.ErrUnsupportedKind):
		return NewBadRequestError("unsupported visualization type", err)
	case errors.As(err, &renderErr), errors.As(err, &colErr):
		return NewRenderError(err)
	case errors.Is(err, animate.ErrNoFrames):
		return NewRenderError(err)
	case errors.Is(err, video.ErrNoFrames), errors.Is(err, video.ErrUnreadableFrame):
		return NewEncodeError(err)
	case errors.Is(err, storage.ErrExtensionNotAllowed):
		return NewBadRequestError("file type not allowed", err)
	case errors.Is(err, storage.ErrNotFound):
		return NewNotFoundError("file", "")
	case errors.Is(err, session.ErrNotFound):
		return NewNotFoundError("session", "")
	case errors.Is(err, slides.ErrInvalidDeck):
		return NewBadRequestError("invalid presentation deck", err)
	}
	return nil
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := FromError(err)
	if apiErr == nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			apiErr = &APIError{
				Status:  he.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", he.Message),
			}
		} else {
			apiErr = &APIError{
				Status:  http.StatusInternalServerError,
				Code:    "UNKNOWN_ERROR",
				Message: "An unexpected error occurred",
			}
			if isDevelopment() {
				apiErr.Details = err.Error()
			}
		}
	}

	if apiErr.Status >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(apiErr.Status)
		return
	}
	c.JSON(apiErr.Status, apiErr)
}

func isDevelopment() bool {
	return ShowErrorDetails
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
