package vpn

import (
	"errors"
	"fmt"
)

// ErrAlreadyInvited is returned when an invite already exists for the
// target email — executors treat this as success rather than a failure.
var ErrAlreadyInvited = errors.New("vpn: user already invited")

// ErrNotFound is returned for operations against an org/user pair the
// controller has no record of.
var ErrNotFound = errors.New("vpn: not found")

// ErrUnauthorized is returned when the configured API key is rejected.
var ErrUnauthorized = errors.New("vpn: unauthorized")

// StatusError wraps a transport failure or an unexpected HTTP status.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vpn: request failed: %v", e.Err)
	}
	return fmt.Sprintf("vpn: unexpected status %d", e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }

// IsNotFound reports whether err represents a not-found response.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyInvited reports whether err represents an already-invited
// conflict.
func IsAlreadyInvited(err error) bool {
	return errors.Is(err, ErrAlreadyInvited)
}
