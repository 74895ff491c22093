// Package domain provides the core types shared across the edge gateway.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of a gateway error.
type ErrorType string

const (
	// ErrorTypeRoutingMiss indicates no route matched the request.
	ErrorTypeRoutingMiss ErrorType = "routing_miss"

	// ErrorTypeRateLimited indicates the client exceeded its request window.
	ErrorTypeRateLimited ErrorType = "rate_limited"

	// ErrorTypeGeneration indicates the content generator failed. It is
	// recovered inside the content cache and never reaches a client.
	ErrorTypeGeneration ErrorType = "generation_failure"

	// ErrorTypeHandler indicates a route handler failed or panicked.
	ErrorTypeHandler ErrorType = "handler_failure"

	// ErrorTypeStore indicates the key-value store was unreachable or errored.
	ErrorTypeStore ErrorType = "store_failure"

	// ErrorTypeInvalidRequest indicates a malformed client payload.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
)

// Sentinels for errors.Is checks.
var (
	ErrRoutingMiss       = errors.New("no route matched")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrGenerationFailure = errors.New("content generation failed")
	ErrHandlerFailure    = errors.New("handler failed")
	ErrStoreFailure      = errors.New("key-value store failure")
	ErrInvalidRequest    = errors.New("invalid request")
)

// EdgeError carries a typed failure through the dispatch pipeline.
type EdgeError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *EdgeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EdgeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's type.
func (e *EdgeError) Is(target error) bool {
	return sentinelFor(e.Type) == target
}

// HTTPStatusCode returns the status a client should see for this error.
func (e *EdgeError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeRoutingMiss:
		return http.StatusNotFound
	case ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewEdgeError creates a new typed error wrapping err.
func NewEdgeError(errType ErrorType, message string, err error) *EdgeError {
	return &EdgeError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// StoreError wraps an infrastructure error from a key-value backend.
func StoreError(op string, err error) error {
	return NewEdgeError(ErrorTypeStore, op, err)
}

// ErrInvalid creates an invalid request error.
func ErrInvalid(message string) *EdgeError {
	return NewEdgeError(ErrorTypeInvalidRequest, message, nil)
}

func sentinelFor(t ErrorType) error {
	switch t {
	case ErrorTypeRoutingMiss:
		return ErrRoutingMiss
	case ErrorTypeRateLimited:
		return ErrRateLimited
	case ErrorTypeGeneration:
		return ErrGenerationFailure
	case ErrorTypeHandler:
		return ErrHandlerFailure
	case ErrorTypeStore:
		return ErrStoreFailure
	case ErrorTypeInvalidRequest:
		return ErrInvalidRequest
	default:
		return nil
	}
}
