package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError maps to a 404 at the API boundary.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{message: msg}
}

func (err NotFoundError) Error() string {
	return err.message
}

// PermissionError indicates a role or ownership check failed.
type PermissionError struct {
	message string
}

func NewPermissionError(msg string) error {
	return &PermissionError{message: msg}
}

func (err PermissionError) Error() string {
	return err.message
}

// ConflictError indicates a uniqueness invariant was violated; raw storage
// errors are translated to this before they reach the API boundary.
type ConflictError struct {
	message string
}

func NewConflictError(msg string) error {
	return &ConflictError{message: msg}
}

func (err ConflictError) Error() string {
	return err.message
}

// ExpiredError indicates a time-bounded resource is past its TTL.
type ExpiredError struct {
	message string
}

func NewExpiredError(msg string) error {
	return &ExpiredError{message: msg}
}

func (err ExpiredError) Error() string {
	return err.message
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
