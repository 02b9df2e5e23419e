// Package apperr is the application's error taxonomy.
//
// Callers test categories with errors.Is against the sentinels; the concrete
// types only carry detail for display and logging.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across all layers.
var (
	ErrValidation  = errors.New("validation error")
	ErrPersistence = errors.New("persistence error")
	ErrTransport   = errors.New("transport error")
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("already exists")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Messages returns the field messages in order, for inline display.
func (e *ValidationError) Messages() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, " ")
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// opError wraps a lower-level error with an operation name and a category.
type opError struct {
	kind error
	op   string
	err  error
}

func (e *opError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.kind, e.op, e.err)
}

func (e *opError) Unwrap() []error { return []error{e.kind, e.err} }

// Persistence marks err as a Directory Store failure during op.
// A nil err returns nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{kind: ErrPersistence, op: op, err: err}
}

// Transport marks err as an outbound delivery failure during op.
// A nil err returns nil.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{kind: ErrTransport, op: op, err: err}
}
