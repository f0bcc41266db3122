package operations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// ExecutorErrorKind classifies why an executor failed, which in turn
// decides whether the dispatcher retries the operation.
type ExecutorErrorKind string

const (
	ErrConnectivity           ExecutorErrorKind = "Connectivity"
	ErrTemporarilyUnavailable ExecutorErrorKind = "TemporarilyUnavailable"
	ErrUnauthorized           ExecutorErrorKind = "Unauthorized"
	ErrInvalidInput           ExecutorErrorKind = "InvalidInput"
	ErrNotFound               ExecutorErrorKind = "NotFound"
	ErrRejected               ExecutorErrorKind = "Rejected"
	ErrInternal               ExecutorErrorKind = "Internal"
	ErrNotHandled             ExecutorErrorKind = "NotHandled"
)

// retryable reports whether the dispatcher should schedule a retry for an
// error of this kind.
func (k ExecutorErrorKind) retryable() bool {
	switch k {
	case ErrConnectivity, ErrTemporarilyUnavailable:
		return true
	default:
		return false
	}
}

// ExecutorError is the error type every Executor returns on failure. It
// carries enough for the dispatcher to decide retry vs terminal-fail and
// for the operation row to record a stable error_code.
type ExecutorError struct {
	Kind    ExecutorErrorKind
	Message string
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewExecutorError(kind ExecutorErrorKind, msg string) *ExecutorError {
	return &ExecutorError{Kind: kind, Message: msg}
}

// Executor performs the external side effect for one OpType. Implementations
// must be idempotent with respect to the operation's natural key: retrying
// the same op_type against the same resource twice must not double-apply —
// e.g. re-issuing AuthzWriteRel for the same tuple is a no-op the second
// time, and a VPN invite re-sent for the same (org, email) either succeeds
// again or comes back as a well-known "already invited" response the
// executor treats as success.
type Executor interface {
	// Handles reports which OpType this executor services.
	Handles() OpType
	// Execute performs the side effect and returns the JSON blob persisted
	// to the operation's output column on success.
	Execute(ctx context.Context, op store.Operation) (json.RawMessage, *ExecutorError)
}
