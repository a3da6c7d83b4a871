package sublinear

import (
	"errors"
	"fmt"

	"github.com/sockerless/sublinear/store"
)

// ErrorKind classifies a failure. Its value is sent to clients as
// extensions.code.
type ErrorKind string

const (
	ErrAuthentication ErrorKind = "AUTHENTICATION_ERROR"
	ErrValidation     ErrorKind = "INVALID_INPUT"
	ErrNotFound       ErrorKind = "ENTITY_NOT_FOUND"
	ErrConflict       ErrorKind = "CONFLICT"
	ErrInternal       ErrorKind = "INTERNAL_SERVER_ERROR"
)

func (k ErrorKind) typeName() string {
	switch k {
	case ErrAuthentication:
		return "authentication error"
	case ErrValidation:
		return "invalid input"
	case ErrNotFound:
		return "entity not found"
	case ErrConflict:
		return "conflict"
	}
	return "internal error"
}

// Error is a client-facing failure. It implements graphql-go's
// ExtendedError, so the kind and offending field travel in the error's
// extensions next to graphql-go's path and locations.
type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Extensions implements gqlerrors.ExtendedError.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"code": string(e.Kind),
		"type": e.Kind.typeName(),
	}
	if e.Field != "" {
		ext["field"] = e.Field
	}
	return ext
}

func invalidInput(field, format string, args ...interface{}) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// toGQLError maps store errors onto error kinds. Anything unrecognised is
// a storage failure and passes through with its message intact.
func toGQLError(err error) *Error {
	var (
		gerr *Error
		nf   *store.NotFoundError
		ce   *store.ConflictError
		ve   *store.ValidationError
	)
	switch {
	case errors.As(err, &gerr):
		return gerr
	case errors.As(err, &nf):
		return &Error{Kind: ErrNotFound, Message: "Entity not found: " + string(nf.Kind), Err: err}
	case errors.As(err, &ce):
		return &Error{Kind: ErrConflict, Message: ce.Msg, Err: err}
	case errors.As(err, &ve):
		return &Error{Kind: ErrValidation, Message: ve.Error(), Field: ve.Field, Err: err}
	}
	return &Error{Kind: ErrInternal, Message: err.Error(), Err: err}
}

// fail converts err for return from a resolver. graphql-go only looks for
// extensions on the concrete error a resolver returns.
func fail(err error) (interface{}, error) {
	return nil, toGQLError(err)
}
