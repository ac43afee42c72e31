package service

import (
	"errors"
	"fmt"
)

const (
	// ErrBadParameter means the request body was malformed or failed validation.
	ErrBadParameter = "bad_parameter"
	// ErrAssignment means no backend was available under the soft cap, or the
	// store failed during backend selection/lookup.
	ErrAssignment = "assignment_error"
	// ErrLookup means a stop request referenced a clientID with no mapping,
	// or the store failed while looking one up.
	ErrLookup = "lookup_error"
	// ErrUpstreamUnreachable means the router could not reach the selected backend.
	ErrUpstreamUnreachable = "upstream_unreachable"
	// ErrEntityNotFound means a referenced record is absent. Not surfaced by
	// any route today; kept for parity with the teacher's error map.
	ErrEntityNotFound = "entity_not_found"
	// ErrInternalServerError is the fallback for anything not otherwise classified.
	ErrInternalServerError = "internal_server_error"
)

// RouterError represents an error within the context of the router's own
// services (validation, assignment, lookup, upstream proxying).
type RouterError struct {
	// Code is a machine-readable code, one of the Err* constants above.
	Code string `json:"code,omitempty"`
	// Message is a human-readable message.
	Message string `json:"message"`
	// Inner is a wrapped error that is never shown to API consumers.
	Inner error `json:"-"`
}

// NewRouterError creates a new RouterError.
func NewRouterError(code string, message string, inner error) *RouterError {
	return &RouterError{Code: code, Message: message, Inner: inner}
}

func NewBadParameterError(message string, inner error) *RouterError {
	return wrapOrNew(ErrBadParameter, message, inner)
}

func NewAssignmentError(message string, inner error) *RouterError {
	return wrapOrNew(ErrAssignment, message, inner)
}

func NewLookupError(message string, inner error) *RouterError {
	return wrapOrNew(ErrLookup, message, inner)
}

func NewUpstreamUnreachableError(message string, inner error) *RouterError {
	return wrapOrNew(ErrUpstreamUnreachable, message, inner)
}

func NewInternalServerError(message string, inner error) *RouterError {
	return wrapOrNew(ErrInternalServerError, message, inner)
}

func wrapOrNew(code, message string, inner error) *RouterError {
	if existing := ToRouterError(inner); existing != nil {
		return existing
	}
	return NewRouterError(code, message, inner)
}

func (e RouterError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Inner)
	}
	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error's reason.
func (e RouterError) Unwrap() error {
	return e.Inner
}

// ToRouterError returns a pointer to a RouterError, or nil if err is not one.
func ToRouterError(err error) *RouterError {
	var e *RouterError
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// ToRouterErrorCode returns the code of the error, if available.
func ToRouterErrorCode(err error) string {
	if e := ToRouterError(err); e != nil {
		return e.Code
	}
	return ""
}

func IsRouterError(err error, code string) bool {
	if e := ToRouterError(err); e != nil {
		return e.Code == code
	}
	return false
}
