// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/activofijo/vales-resguardo/internal/document"
	"github.com/activofijo/vales-resguardo/internal/inventory"
	"github.com/activofijo/vales-resguardo/internal/parser"
	"github.com/activofijo/vales-resguardo/internal/session"
	"github.com/activofijo/vales-resguardo/internal/storage"
	"github.com/activofijo/vales-resguardo/internal/upload"
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

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewUnprocessableError creates a 422 error for input that was read but
// cannot be used.
func NewUnprocessableError(code, message string, cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    code,
		Message: message,
	}, cause)
}

// NewUnsupportedMediaError creates a 415 error for unknown file types
func NewUnsupportedMediaError(fileName string) *APIError {
	return &APIError{
		Status:  http.StatusUnsupportedMediaType,
		Code:    "UNSUPPORTED_FILE",
		Message: fmt.Sprintf("unsupported file type: %s", fileName),
	}
}

// NewTooLargeError creates a 413 error
func NewTooLargeError(cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    "FILE_TOO_LARGE",
		Message: "file exceeds the size limit",
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

func withCause(e *APIError, cause error) *APIError {
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// mapDomainError translates errors from the service packages into API errors.
// Unknown errors map to nil.
func mapDomainError(err error) *APIError {
	var (
		apiErr     *APIError
		missingCol *inventory.MissingColumnError
		missingEmp *document.MissingEmployeeError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &missingCol):
		return NewUnprocessableError("MISSING_COLUMN", missingCol.Error(), nil)
	case errors.Is(err, inventory.ErrEmptyFile), errors.Is(err, parser.ErrEmptyWorksheet):
		return NewUnprocessableError("EMPTY_FILE", "the file has no data rows", err)
	case errors.Is(err, document.ErrEmptyDataset), errors.Is(err, session.ErrEmptyDataset):
		return NewUnprocessableError("EMPTY_DATASET", "no data loaded", err)
	case errors.Is(err, document.ErrEmptyInventory):
		return NewUnprocessableError("EMPTY_INVENTORY", "no inventory data to generate a voucher", err)
	case errors.As(err, &missingEmp):
		return &APIError{
			Status:  http.StatusNotFound,
			Code:    "EMPLOYEE_NOT_FOUND",
			Message: missingEmp.Error(),
		}
	case errors.Is(err, session.ErrUnknownEmployee):
		return &APIError{
			Status:  http.StatusNotFound,
			Code:    "EMPLOYEE_NOT_FOUND",
			Message: err.Error(),
		}
	case errors.Is(err, session.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return &APIError{
			Status:  http.StatusNotFound,
			Code:    "NOT_FOUND",
			Message: err.Error(),
		}
	case errors.Is(err, parser.ErrUnsupportedFile):
		return withCause(&APIError{
			Status:  http.StatusUnsupportedMediaType,
			Code:    "UNSUPPORTED_FILE",
			Message: "unsupported file type",
		}, err)
	case errors.Is(err, upload.ErrTooLarge), errors.Is(err, storage.ErrTooLarge):
		return NewTooLargeError(err)
	}
	return nil
}

// processingError wraps a failure to read an uploaded file.
func processingError(err error) *APIError {
	if apiErr := mapDomainError(err); apiErr != nil {
		return apiErr
	}
	return NewBadRequestError("could not read the file", err).withCode("INVALID_FILE")
}

func (e *APIError) withCode(code string) *APIError {
	e.Code = code
	return e
}

// NewErrorHandler returns the echo HTTP error handler.
// Usage: e.HTTPErrorHandler = api.NewErrorHandler(logger, debug)
func NewErrorHandler(logger *zap.Logger, debug bool) echo.HTTPErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *echo.HTTPError
		apiErr := mapDomainError(err)
		switch {
		case apiErr != nil:
		case errors.As(err, &httpErr):
			apiErr = &APIError{
				Status:  httpErr.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", httpErr.Message),
			}
		default:
			apiErr = &APIError{
				Status:  http.StatusInternalServerError,
				Code:    "UNKNOWN_ERROR",
				Message: "An unexpected error occurred",
			}
			if debug {
				apiErr.Details = err.Error()
			}
		}

		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.Request().URL.Path),
				zap.String("code", apiErr.Code),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(apiErr.Status)
			return
		}
		_ = c.JSON(apiErr.Status, apiErr)
	}
}
