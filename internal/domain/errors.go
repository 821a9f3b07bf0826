// Package domain defines core types, interfaces, and errors for fsql.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., attaching the same folder twice).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ReadOnlyError indicates a write was attempted against a table whose
// backing file cannot be written (e.g., legacy .xls workbooks).
type ReadOnlyError struct {
	Message string
}

func (e *ReadOnlyError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrReadOnly creates a ReadOnlyError with a formatted message.
func ErrReadOnly(format string, args ...interface{}) *ReadOnlyError {
	return &ReadOnlyError{Message: fmt.Sprintf(format, args...)}
}
