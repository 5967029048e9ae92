// Package apperr defines the error taxonomy shared by the controller, the
// repository facade and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error. A Kind is itself an error so callers can write
// errors.Is(err, apperr.NotFound).
type Kind string

// Error kinds.
const (
	ValidationError    Kind = "ValidationError"
	Unauthorized       Kind = "Unauthorized"
	Forbidden          Kind = "Forbidden"
	NotFound           Kind = "NotFound"
	InvalidState       Kind = "InvalidState"
	InvalidTransition  Kind = "InvalidTransition"
	ServiceUnavailable Kind = "ServiceUnavailable"
	RateLimited        Kind = "RateLimited"
	Internal           Kind = "Internal"
)

func (k Kind) Error() string { return string(k) }

// FieldIssue describes one failing field and the rule it failed.
type FieldIssue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message,omitempty"`
}

// Error is the concrete error value carried across layers.
type Error struct {
	Op      string
	Kind    Kind
	Err     error
	Details []FieldIssue
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on the error kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New builds an error of the given kind with a plain message.
func New(op string, kind Kind, msg string) *Error {
	var err error
	if msg != "" {
		err = errors.New(msg)
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Newf is New with formatting.
func Newf(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind to err. A nil err yields nil.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Invalid builds a ValidationError carrying field details.
func Invalid(op string, issues []FieldIssue) *Error {
	return &Error{Op: op, Kind: ValidationError, Details: issues}
}

// KindOf extracts the kind of err. Unclassified errors are Internal; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Internal
}

// DetailsOf returns the field issues attached to err, if any.
func DetailsOf(err error) []FieldIssue {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// HTTPStatus maps a kind to its response status.
func HTTPStatus(k Kind) int {
	switch k {
	case ValidationError, InvalidState, InvalidTransition:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
