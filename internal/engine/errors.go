package engine

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of request-error kinds the caller can map to
// a precise user-facing message.
type ErrorKind string

const (
	ErrNoCyclesForMember ErrorKind = "no_cycles_for_member"
	ErrInvalidCycleIndex ErrorKind = "invalid_cycle_index"
	ErrInvalidRange      ErrorKind = "invalid_range"
	ErrEmptyEventTable   ErrorKind = "empty_event_table"
)

// RequestError is fatal to one request (or one member within a batch) but
// never to the engine.
type RequestError struct {
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

func (e *RequestError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func requestErrorf(kind ErrorKind, format string, args ...any) *RequestError {
	return &RequestError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// AsRequestError unwraps err into a RequestError when possible.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

// ErrInternal marks invariant violations. They are logged and surfaced as a
// generic failure, never silently repaired.
var ErrInternal = errors.New("internal computation error")

func internalErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInternal}, args...)...)
}
