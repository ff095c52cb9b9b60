package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common application errors
var (
	ErrNotFound        = NewNotFoundError("resource", "resource not found")
	ErrInvalidArgument = NewValidationError("", "invalid argument")
	ErrInternal        = NewInternalError("internal server error", nil)
	ErrUnauthorized    = NewInternalError("unauthorized", nil)
)

// Duplicate resource names used by the repository when rejecting a create.
const (
	ResourceEmail         = "email"
	ResourceExternalLogin = "external login"
)

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// HTTPStatus returns the HTTP status code for this error
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the HTTP status code for this error
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// DuplicateError represents a uniqueness violation on create. The Resource
// field distinguishes a duplicate email from a duplicate external login so
// callers can route the user toward account recovery instead of a generic
// retry.
type DuplicateError struct {
	Resource string
	Message  string
}

// NewDuplicateEmailError creates a duplicate error for an email address
// already held by another account.
func NewDuplicateEmailError(email string) *DuplicateError {
	return &DuplicateError{
		Resource: ResourceEmail,
		Message:  fmt.Sprintf("email %q is already registered", email),
	}
}

// NewDuplicateLoginError creates a duplicate error for an external login
// already linked to another account.
func NewDuplicateLoginError(providerName, providerKey string) *DuplicateError {
	return &DuplicateError{
		Resource: ResourceExternalLogin,
		Message:  fmt.Sprintf("external login %s/%s is already linked to an account", providerName, providerKey),
	}
}

// Error implements the error interface
func (e *DuplicateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// HTTPStatus returns the HTTP status code for this error
func (e *DuplicateError) HTTPStatus() int {
	return http.StatusConflict
}

// IsDuplicate reports whether err is a uniqueness violation of any kind.
func IsDuplicate(err error) bool {
	var dup *DuplicateError
	return errors.As(err, &dup)
}

// ConcurrencyError represents an optimistic-lock failure: the concurrency
// token supplied with a write no longer matches the stored document.
type ConcurrencyError struct {
	Resource string
	ID       string
}

// NewConcurrencyError creates a new concurrency error
func NewConcurrencyError(resource, id string) *ConcurrencyError {
	return &ConcurrencyError{
		Resource: resource,
		ID:       id,
	}
}

// Error implements the error interface
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("%s %q was modified by another request", e.Resource, e.ID)
}

// HTTPStatus returns the HTTP status code for this error
func (e *ConcurrencyError) HTTPStatus() int {
	return http.StatusPreconditionFailed
}

// IsConcurrency reports whether err is an optimistic-lock failure.
func IsConcurrency(err error) bool {
	var c *ConcurrencyError
	return errors.As(err, &c)
}

// UnavailableError represents a transport or backend failure talking to the
// document store.
type UnavailableError struct {
	Message string
	Err     error
}

// NewUnavailableError creates a new unavailable error
func NewUnavailableError(message string, err error) *UnavailableError {
	return &UnavailableError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error
func (e *UnavailableError) HTTPStatus() int {
	return http.StatusServiceUnavailable
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error
func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// HTTPStatuser interface for errors that can provide an HTTP status code
type HTTPStatuser interface {
	HTTPStatus() int
}

// StatusFor resolves the HTTP status code for an error, defaulting to 500.
func StatusFor(err error) int {
	var s HTTPStatuser
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}
