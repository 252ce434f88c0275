// Package apperr defines the closed set of failure kinds a request can end in.
//
// Services return *Error values tagged with a Kind. The HTTP layer maps each
// Kind to exactly one status code in a single place; nothing else decides
// status codes. Untagged errors are treated as StorageFailure.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a failure category.
type Kind int

const (
	// StorageFailure is the zero value so untagged errors degrade to a 500.
	StorageFailure Kind = iota
	Unauthenticated
	Forbidden
	ValidationFailed
	NotFound
	Conflict
	RateLimited
	BadRequest
)

var kindNames = map[Kind]string{
	StorageFailure:   "storage_failure",
	Unauthenticated:  "unauthenticated",
	Forbidden:        "forbidden",
	ValidationFailed: "validation_failed",
	NotFound:         "not_found",
	Conflict:         "conflict",
	RateLimited:      "rate_limited",
	BadRequest:       "bad_request",
}

// String returns the wire code for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Violation describes one invalid input field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a tagged failure. Message is safe to show to clients;
// Err carries the internal cause and is only logged.
type Error struct {
	Kind       Kind
	Message    string
	Violations []Violation
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags cause with a kind. The message is client-facing.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Validation returns a ValidationFailed error listing the bad fields.
func Validation(violations []Violation) *Error {
	return &Error{
		Kind:       ValidationFailed,
		Message:    "validation failed",
		Violations: violations,
	}
}

// Storage wraps a persistence fault. The cause never reaches the client.
func Storage(cause error) *Error {
	return Wrap(StorageFailure, "internal error", cause)
}

// KindOf reports the kind of err, or StorageFailure for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return StorageFailure
}

// As extracts the tagged error from err's chain.
// Untagged errors come back wrapped as StorageFailure.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Storage(err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
