package bastion

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for operations against an agent/connection the
// bastion has no record of.
var ErrNotFound = errors.New("bastion: not found")

// ErrUnauthorized is returned when the configured API key is rejected.
var ErrUnauthorized = errors.New("bastion: unauthorized")

// StatusError wraps a transport failure or an unexpected HTTP status.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bastion: request failed: %v", e.Err)
	}
	return fmt.Sprintf("bastion: unexpected status %d", e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }

// IsNotFound reports whether err represents a not-found response.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
