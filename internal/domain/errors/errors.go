// Package errors defines the closed domain error taxonomy. Every business
// failure raised by the use-case layer is one of the values below; transport
// and storage failures stay outside the taxonomy and propagate unchanged.
package errors

import (
	"net/http"

	"purse/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// The closed taxonomy. Each value is raised at exactly the points documented
// on the use-case methods; nothing else in the system mints domain errors.
var (
	// ErrUserNotFound is raised when a lookup by id or email yields no user.
	ErrUserNotFound = NewBaseError(
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"user not found",
		"",
	)

	// ErrUserAlreadyExists is raised on registration with an email that is taken.
	ErrUserAlreadyExists = NewBaseError(
		http.StatusConflict,
		"USER_ALREADY_EXISTS",
		"a user with this email already exists",
		"",
	)

	// ErrInvalidCredentials is raised when the identity provider rejects a
	// credential-bearing login attempt.
	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"invalid email or password",
		"",
	)

	// ErrEmailNotConfirmed is raised on login before required email confirmation.
	ErrEmailNotConfirmed = NewBaseError(
		http.StatusForbidden,
		"EMAIL_NOT_CONFIRMED",
		"email address must be confirmed before login",
		"",
	)

	// ErrSessionExpired is raised when a found session is invalid specifically
	// because its expiry time has passed.
	ErrSessionExpired = NewBaseError(
		http.StatusUnauthorized,
		"SESSION_EXPIRED",
		"session has expired",
		"",
	)

	// ErrInvalidSession is raised when a session or token is absent, or found
	// but deactivated rather than expired.
	ErrInvalidSession = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_SESSION",
		"session is invalid",
		"",
	)
)

// DatabaseExecuteError represents a storage execution failure. It implements
// AppError for the delivery layer's sake but is NOT part of the domain
// taxonomy: the use-case layer never raises, catches, or reinterprets it.
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
