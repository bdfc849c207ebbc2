package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a 400: malformed input or a broken business rule.
type ValidationError struct {
	Err     error
	Fields  []FieldError
	Details map[string]interface{} // merged into the response body
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewValidationErrorf builds a message-only ValidationError.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is a 404: the referenced id does not resolve to an active row.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

// IsNotFound reports whether the cause of err is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// PermissionError is a 403: the role lacks permission or an ownership check failed.
type PermissionError struct {
	Message string
}

func NewPermissionError(msg string) error {
	if msg == "" {
		msg = "permission denied"
	}
	return &PermissionError{Message: msg}
}

func (err PermissionError) Error() string {
	return err.Message
}

// ConflictError is a 409: a duplicate value or an already existing record.
type ConflictError struct {
	Message string
	Fields  []FieldError
	Details map[string]interface{}
}

func NewConflictError(msg string, details map[string]interface{}, flds ...FieldError) error {
	return &ConflictError{Message: msg, Fields: flds, Details: details}
}

func (err ConflictError) Error() string {
	return err.Message
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
