package services

import (
	"errors"
	"fmt"
	"net/http"

	"querypilot/pkg/llm"
)

// ValidationError rejects malformed input before any backend work happens
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a missing resource
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// DatabaseError wraps a backend failure on the query path
type DatabaseError struct {
	Operation string
	Err       error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database %s failed: %v", e.Operation, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// StatusForError maps service errors onto HTTP status codes
func StatusForError(err error) uint32 {
	var validationErr *ValidationError
	var inputErr *llm.InputValidationError
	var sqlErr *llm.SQLValidationError
	var notFoundErr *NotFoundError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &sqlErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
