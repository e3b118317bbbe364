package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents specific error types
type ErrorCode string

const (
	// Credential errors
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeSignatureInvalid   ErrorCode = "SIGNATURE_INVALID"
	ErrCodeTokenMalformed     ErrorCode = "TOKEN_MALFORMED"

	// Lookup errors
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeUserExists ErrorCode = "USER_EXISTS"

	// Tenant resolution errors
	ErrCodeTenantUnknown  ErrorCode = "TENANT_UNKNOWN"
	ErrCodeTenantDisabled ErrorCode = "TENANT_DISABLED"

	// Validation errors
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// System errors
	ErrCodeStorageError  ErrorCode = "STORAGE_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"

	// Rate limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match two AppErrors by code, so the predefined
// sentinels below work as comparison targets for wrapped copies.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if !errors.As(target, &appErr) {
		return false
	}
	return e.Code == appErr.Code
}

// WithCause adds a cause to a copy of the error
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// WithDetails adds details to a copy of the error
func (e *AppError) WithDetails(details string) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getHTTPStatusCode(code),
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: getHTTPStatusCode(code),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getHTTPStatusCode(code),
		Cause:      cause,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// GetHTTPStatusCode gets the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// getHTTPStatusCode maps error codes to HTTP status codes
func getHTTPStatusCode(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case ErrCodeTokenExpired, ErrCodeSignatureInvalid, ErrCodeTokenMalformed, ErrCodeNotFound:
		// token rejections and consumed/forged lookups share one outward
		// shape so a caller cannot probe which kind it hit
		return http.StatusForbidden
	case ErrCodeUserExists:
		return http.StatusConflict
	case ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeTenantUnknown, ErrCodeTenantDisabled:
		return http.StatusBadRequest
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeStorageError, ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Predefined common errors

var (
	ErrInvalidCredentials = New(ErrCodeInvalidCredentials, "invalid credentials")
	ErrTokenExpired       = New(ErrCodeTokenExpired, "token has expired")
	ErrSignatureInvalid   = New(ErrCodeSignatureInvalid, "token signature is invalid")
	ErrTokenMalformed     = New(ErrCodeTokenMalformed, "token is malformed")
	ErrNotFound           = New(ErrCodeNotFound, "resource not found")
	ErrUserExists         = New(ErrCodeUserExists, "user already exists")
	ErrTenantUnknown      = New(ErrCodeTenantUnknown, "unknown tenant")
	ErrTenantDisabled     = New(ErrCodeTenantDisabled, "default tenant is disabled")
	ErrValidationFailed   = New(ErrCodeValidationFailed, "validation failed")
	ErrStorageError       = New(ErrCodeStorageError, "storage operation failed")
	ErrInternalError      = New(ErrCodeInternalError, "internal server error")
)

// Helper functions for creating contextual errors

// NewNotFound creates a not found error naming the missing resource
func NewNotFound(resource string) *AppError {
	return Newf(ErrCodeNotFound, "%s not found", resource)
}

// NewValidationError creates a validation error with details
func NewValidationError(details string) *AppError {
	return New(ErrCodeValidationFailed, "validation failed").WithDetails(details)
}

// NewStorageError creates a storage error with cause
func NewStorageError(cause error) *AppError {
	return Wrap(ErrCodeStorageError, "storage operation failed", cause)
}

// NewInternalError creates an internal error with cause
func NewInternalError(cause error) *AppError {
	return Wrap(ErrCodeInternalError, "internal server error", cause)
}
