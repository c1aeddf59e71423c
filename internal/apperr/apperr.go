// Package apperr classifies failures at the service boundary so the HTTP layer
// can pick a status code without inspecting storage errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/technosupport/vms-inventory/internal/data"
)

type Kind int

const (
	Unexpected Kind = iota
	Validation
	NotFound
	Conflict
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unexpected"
	}
}

type Error struct {
	Kind    Kind
	Message string
	// Fields maps a request field to its validation message.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Invalid(msg string) *Error {
	return &Error{Kind: Validation, Message: msg}
}

func InvalidFields(fields map[string]string) *Error {
	return &Error{Kind: Validation, Message: "validation failed", Fields: fields}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: Unauthorized, Message: msg}
}

// FromStorage maps a data-layer error onto the taxonomy. op names the failing
// operation for the server log.
func FromStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, data.ErrRecordNotFound):
		return &Error{Kind: NotFound, Message: "record not found", Err: err}
	case data.IsConstraintViolation(err):
		return &Error{Kind: Conflict, Message: op + " violated a storage constraint", Err: err}
	default:
		return &Error{Kind: Unexpected, Message: op + " failed", Err: err}
	}
}

// KindOf returns Unexpected for errors outside the taxonomy.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Unexpected
}

func IsNotFound(err error) bool { return KindOf(err) == NotFound }

// HTTPStatus maps a kind to its response code. Conflicts surface as 500.
func HTTPStatus(k Kind) int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ForID is FromStorage with a resource-specific not-found message.
func ForID(resource string, id int64, op string, err error) error {
	mapped := FromStorage(op, err)
	if IsNotFound(mapped) {
		return &Error{Kind: NotFound, Message: fmt.Sprintf("%s %d not found", resource, id), Err: err}
	}
	return mapped
}
