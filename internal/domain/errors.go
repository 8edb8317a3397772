package domain

import (
	"errors"
	"fmt"
)

// ErrNoMatch is wrapped by a DispatchError when no rule matched a request.
var ErrNoMatch = errors.New("no rule matched request")

// FetchError reports that the upstream weather service was unreachable,
// answered with a non-success status, or sent an unreadable payload.
type FetchError struct {
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("weather fetch: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("weather fetch: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CompositionError reports that a successful fetch lacked a field a response
// needs, or carried it in an unusable form.
type CompositionError struct {
	Field  string
	Reason string
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("compose response: field %s %s", e.Field, e.Reason)
}

// DispatchError reports that no rule matched, or that the matched responder
// failed. It never reaches the platform; the exception rules turn it into an
// apology.
type DispatchError struct {
	Kind RequestKind
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Kind, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is, or wraps, a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
