package store

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every *NotFoundError under errors.Is.
var ErrNotFound = errors.New("entity not found")

// NotFoundError reports a reference to an entity that does not exist.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("Entity not found: %s", e.Kind)
	}
	return fmt.Sprintf("Entity not found: %s %s", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a write that would break an invariant, such as a
// workflow state from another team.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func conflictf(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationError reports malformed input: a missing required value, an
// unknown filter field or operator, a bad enum value.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
