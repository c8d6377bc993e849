// Package apperr defines the error taxonomy shared by every kiosk store.
//
// All operations return a plain error. When the failure is one the user can act on,
// the error is an *Error whose Message is safe to display as-is.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	// Unknown is never produced by kiosk itself.
	Unknown Kind = iota
	// Unauthenticated means there is no usable token: absent, expired or malformed.
	Unauthenticated
	// ValidationFailure is a client-side form check that did not pass.
	ValidationFailure
	// TransportFailure is a network error or a non-2xx response from the API.
	TransportFailure
	// NotFound is a missing resource or a response without the fields we expected.
	NotFound
)

// GenericMessage is shown when the server did not provide anything better.
const GenericMessage = "Something went wrong. Please try again."

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case ValidationFailure:
		return "validation_failure"
	case TransportFailure:
		return "transport_failure"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status code when the failure came from the API.
	Status int
	// Fields holds per-field messages for validation failures.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(&b, "%s: %s", k, e.Fields[k])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, apperr.ErrUnauthenticated) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnauthenticated = &Error{Kind: Unauthenticated}
	ErrValidation      = &Error{Kind: ValidationFailure}
	ErrTransport       = &Error{Kind: TransportFailure}
	ErrNotFound        = &Error{Kind: NotFound}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Unauthenticatedf(format string, args ...any) *Error {
	return &Error{Kind: Unauthenticated, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a ValidationFailure from field messages. It returns nil when there are none.
func Validation(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	msg := "Please correct the highlighted fields."
	if len(fields) == 1 {
		for _, m := range fields {
			msg = m
		}
	}
	return &Error{Kind: ValidationFailure, Message: msg, Fields: fields}
}

// KindOf reports the Kind of err, or Unknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the displayable message of err. Errors that are not *Error get the
// generic fallback so internals never reach the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return GenericMessage
}
