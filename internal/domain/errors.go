package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a mutation targeted a record that no longer exists
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates malformed or missing required input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// StoreError indicates the backing store rejected or could not complete
	// an operation (network loss, permission denial, quota)
	StoreError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *StoreError) Error() string        { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *StoreError) StatusCode() int        { return http.StatusBadGateway }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStore        = errors.New("store unavailable")
	ErrBatch        = errors.New("batch commit failed")
)

// Is allows errors.Is() matching against the sentinels
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *StoreError) Is(target error) bool        { return target == ErrStore }

// BatchError represents a bulk mutation that failed to commit as a whole.
// The guarantee is all-or-nothing: when a BatchError is returned, no record
// named in IDs has been removed.
type BatchError struct {
	Message string
	IDs     []string
}

// Error implements the error interface
func (e *BatchError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *BatchError) StatusCode() int {
	return http.StatusBadGateway
}

// Is allows errors.Is() to match against ErrBatch
func (e *BatchError) Is(target error) bool {
	return target == ErrBatch
}
