// Package errs defines the error kinds reported by the simulator.
//
// Every error carries a Kind so callers (the HTTP layer, the CLI) can map it
// to a response without string matching:
//
//	err := errs.Newf(errs.InsufficientData, "need %d values, got %d", period, n)
//	if errs.Is(err, errs.InsufficientData) { ... }
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Unknown          Kind = "unknown"
	InvalidParameter Kind = "invalid_parameter"
	InsufficientData Kind = "insufficient_data"
	AlreadyRunning   Kind = "already_running"
	UpstreamFetch    Kind = "upstream_fetch"
	InvalidRange     Kind = "invalid_range"
	Internal         Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of the outermost *Error in the chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
