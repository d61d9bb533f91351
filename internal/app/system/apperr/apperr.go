// Package apperr defines the error types handlers return to API clients.
//
// Each type maps to one HTTP status. Any other error is treated as an
// internal failure: its text is logged and never sent to the client.
package apperr

import (
	"errors"
	"net/http"
)

// InternalMessage is the client-facing text for unexpected failures.
const InternalMessage = "Internal server error"

// ValidationError reports malformed or missing input (400).
type ValidationError struct {
	Message string
	Fields  map[string]string // optional per-field messages
}

func (e *ValidationError) Error() string { return e.Message }

// AuthError reports a missing or invalid credential (401).
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// ForbiddenError reports an authenticated caller acting on something
// they do not own (403).
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// NotFoundError reports an absent resource (404).
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ConflictError reports a request that clashes with current state, such as
// joining a group twice (400).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Validation returns a ValidationError with msg.
func Validation(msg string) error { return &ValidationError{Message: msg} }

// Auth returns an AuthError with msg.
func Auth(msg string) error { return &AuthError{Message: msg} }

// Forbidden returns a ForbiddenError with msg.
func Forbidden(msg string) error { return &ForbiddenError{Message: msg} }

// NotFound returns a NotFoundError with msg.
func NotFound(msg string) error { return &NotFoundError{Message: msg} }

// Conflict returns a ConflictError with msg.
func Conflict(msg string) error { return &ConflictError{Message: msg} }

// Public describes how err should be shown to a client: the HTTP status,
// the message, and field errors when err is a ValidationError.
// Unknown errors become 500 with InternalMessage.
func Public(err error) (status int, message string, fields map[string]string) {
	var (
		ve *ValidationError
		ae *AuthError
		fe *ForbiddenError
		ne *NotFoundError
		ce *ConflictError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message, ve.Fields
	case errors.As(err, &ae):
		return http.StatusUnauthorized, ae.Message, nil
	case errors.As(err, &fe):
		return http.StatusForbidden, fe.Message, nil
	case errors.As(err, &ne):
		return http.StatusNotFound, ne.Message, nil
	case errors.As(err, &ce):
		return http.StatusBadRequest, ce.Message, nil
	default:
		return http.StatusInternalServerError, InternalMessage, nil
	}
}

// IsInternal reports whether err is not one of the client-facing types.
func IsInternal(err error) bool {
	status, _, _ := Public(err)
	return status == http.StatusInternalServerError
}
