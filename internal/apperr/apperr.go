package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies what went wrong during a lookup.
// The presentation layer maps kinds to user-facing messages and status codes.
type Kind string

const (
	KindInvalidInput       Kind = "invalid_input"       // Input rejected before any request was made
	KindNetwork            Kind = "network"             // Transport failure (DNS, connection refused, ...)
	KindStatus             Kind = "status"              // Non-2xx HTTP status without a provider error payload
	KindDecode             Kind = "decode"              // Malformed response body
	KindProvider           Kind = "provider"            // Provider reported an error in its payload
	KindMissingCoordinates Kind = "missing_coordinates" // Location has no coordinates for the weather step
	KindUnknown            Kind = "unknown"
)

// Error is the error type returned by providers and the lookup service.
type Error struct {
	Kind       Kind
	Provider   string // "ipify", "mmdb", "openweathermap", ...
	Op         string // operation, e.g. "lookup_ip"
	StatusCode int    // HTTP status, when one was received
	Message    string // provider message or short description
	Err        error  // underlying cause
}

// New creates an Error without an underlying cause.
func New(kind Kind, provider, op, message string) *Error {
	return &Error{Kind: kind, Provider: provider, Op: op, Message: message}
}

// Wrap creates an Error around an underlying cause.
func Wrap(kind Kind, provider, op string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can write errors.Is(err, &apperr.Error{Kind: apperr.KindNetwork}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
