// Package apierr holds the error kinds that the dispatcher turns into
// response envelopes. Everything below the dispatcher returns these as plain
// error values; nothing else in the tree writes HTTP statuses for them.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the client.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindNotAllowed    Kind = "not_allowed"
	KindSerialization Kind = "serialization"
)

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Validation reports a rejected parameter, filter, sort field or literal.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing item.
func NotFound() error {
	return &Error{Kind: KindNotFound, Message: "item does not exist"}
}

// NotAllowed reports an operation the resource does not support.
func NotAllowed() error {
	return &Error{Kind: KindNotAllowed, Message: "This method is not allowed for this resource"}
}

// Serialization reports a row whose shape does not match its descriptor.
func Serialization(format string, args ...any) error {
	return &Error{Kind: KindSerialization, Message: fmt.Sprintf(format, args...)}
}

// As extracts the classified error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// Status maps an error to the HTTP status the client sees.
// Serialization errors and unclassified errors are internal.
func Status(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound, KindNotAllowed:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Internal reports whether err must be hidden from the client.
func Internal(err error) bool {
	return Status(err) == http.StatusInternalServerError
}
