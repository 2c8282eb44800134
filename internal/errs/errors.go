// Package errs defines the typed failures every engine operation reports.
//
// Callers match on the Code with errors.As (or the IsX helpers), never on
// message text. Storage-layer detail is kept in the wrapped Err.
package errs

import (
	"errors"
	"fmt"
)

// Code categorizes an engine failure.
type Code string

const (
	// NotFound indicates an address resolved to nothing. Optional lookups
	// return a nil value instead of this error.
	NotFound Code = "NOT_FOUND"

	// InvalidArgument indicates a zero page size, a malformed reference,
	// or a request beyond a server-side cap.
	InvalidArgument Code = "INVALID_ARGUMENT"

	// Forbidden indicates the caller lacks write permission or is not the
	// creator of the record it tried to remove.
	Forbidden Code = "FORBIDDEN"

	// RateLimited indicates an admission-control quota was exceeded.
	RateLimited Code = "RATE_LIMITED"

	// StorageUnavailable indicates the store could not be reached or timed out.
	// State is unchanged when this is returned, so the call may be retried.
	StorageUnavailable Code = "STORAGE_UNAVAILABLE"
)

// Error is the single error type surfaced by engine operations.
type Error struct {
	// Code identifies the failure category.
	Code Code

	// Op names the operation that failed, e.g. "graph.follow".
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without an underlying cause.
func New(code Code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and operation to err. A nil err returns nil.
// If err already carries a Code it is kept and only Op is filled in.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Op == "" {
			return &Error{Code: e.Code, Op: op, Message: e.Message, Err: e.Err}
		}
		return err
	}
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf returns the Code carried by err, or "" if err has none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func IsNotFound(err error) bool           { return Is(err, NotFound) }
func IsInvalidArgument(err error) bool    { return Is(err, InvalidArgument) }
func IsForbidden(err error) bool          { return Is(err, Forbidden) }
func IsRateLimited(err error) bool        { return Is(err, RateLimited) }
func IsStorageUnavailable(err error) bool { return Is(err, StorageUnavailable) }
