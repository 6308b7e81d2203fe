package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Stack      string `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Stack:      string(debug.Stack()),
	}
}

// NewValidationError creates a 400 error carrying field-level validation detail
func NewValidationError(message string, fields map[string]string) *AppError {
	return NewError(http.StatusBadRequest, "VALIDATION_ERROR", message).WithDetails(fields)
}

// NewNotConfiguredError creates a 503 error for a feature whose credential
// group is absent
func NewNotConfiguredError(message string) *AppError {
	return NewError(http.StatusServiceUnavailable, "AGENT_NOT_CONFIGURED", message)
}

// NewAuthError creates an error for a failed token acquisition. The relay
// surfaces it as a bad gateway since the caller cannot fix it.
func NewAuthError(message string) *AppError {
	return NewError(http.StatusBadGateway, "AUTH_ERROR", message)
}

// NewRemoteAPIError creates an error for a non-success response from the
// remote agent API, embedding the upstream status and body as detail
func NewRemoteAPIError(operation string, status int, body string) *AppError {
	e := NewError(http.StatusBadGateway, "REMOTE_API_ERROR",
		fmt.Sprintf("%s failed with status %d", operation, status))
	return e.WithDetails(body)
}

// NewTimeoutError creates an error for a poll loop that exceeded its deadline
func NewTimeoutError(message string) *AppError {
	return NewError(http.StatusBadGateway, "RUN_TIMEOUT", message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(code string, message string) *AppError {
	return NewError(http.StatusBadRequest, code, message)
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// FromError converts any error to an AppError. Unknown errors become a
// generic 500 that does not leak internal detail.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    "The server encountered an unexpected error",
	}
}

// Is checks if the target error is of type AppError with the same code
func Is(err error, target *AppError) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	return appErr.Code == target.Code
}
