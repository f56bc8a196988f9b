package continuation

import (
	"errors"
	"fmt"
)

var (
	// ErrFailed is the single condition every transport, status and decode
	// failure surfaces as.
	ErrFailed = errors.New("continuation: request failed")

	// ErrInvalidRequest indicates a request rejected before any network call.
	ErrInvalidRequest = errors.New("continuation: invalid request")
)

// Error wraps a failed solver call with its operation and HTTP status.
type Error struct {
	Op      string
	Status  int
	Wrapped error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("continuation: %s: status %d: %v", e.Op, e.Status, e.Wrapped)
	}
	return fmt.Sprintf("continuation: %s: %v", e.Op, e.Wrapped)
}

func (e *Error) Unwrap() []error {
	return []error{ErrFailed, e.Wrapped}
}

func failed(op string, status int, err error) error {
	return &Error{Op: op, Status: status, Wrapped: err}
}
