package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks reads or writes against a missing or soft-deleted entity.
	ErrNotFound = errors.New("entity not found")
	// ErrConflict marks uniqueness violations.
	ErrConflict = errors.New("conflict")
)

// FieldError points at a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level problems detected before any store
// mutation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}
