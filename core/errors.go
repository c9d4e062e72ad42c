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

// ValidationError is a user-correctable error. Err is usually a package sentinel.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
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

func (err ValidationError) Unwrap() error {
	return err.Err
}

// NotFoundError is returned by lookups of unknown ids.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func (err NotFoundError) Error() string {
	if err.ID == "" {
		return err.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", err.Resource, err.ID)
}

func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

// ConstraintError is returned when a mutation would break a referential rule,
// e.g. deleting a batch that still has courses.
type ConstraintError struct {
	Msg string
}

func NewConstraintError(format string, args ...interface{}) error {
	return &ConstraintError{Msg: fmt.Sprintf(format, args...)}
}

func (err ConstraintError) Error() string {
	return err.Msg
}

func IsConstraint(err error) bool {
	var cErr *ConstraintError
	return errors.As(err, &cErr)
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
