// Package executors holds the built-in Executor implementations the
// operation worker pool dispatches to.
package executors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/authz"
	"github.com/France-Nuage/plateforme-sub000/internal/operations"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// authzInput is the JSON shape producers enqueue for both AuthzWriteRel and
// AuthzDeleteRel — the same tuple fields, dispatched by op_type.
type authzInput struct {
	ObjectType  string `json:"object_type"`
	ObjectID    string `json:"object_id"`
	Relation    string `json:"relation"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
}

// AuthzExecutor writes or deletes one relationship tuple at the
// authorization server. It handles both AuthzWriteRel and AuthzDeleteRel;
// construct two instances (one per op_type) and register both with the
// dispatcher.
type AuthzExecutor struct {
	checker authz.Checker
	opType  operations.OpType
}

// NewAuthzWriteExecutor handles AuthzWriteRel operations.
func NewAuthzWriteExecutor(checker authz.Checker) *AuthzExecutor {
	return &AuthzExecutor{checker: checker, opType: operations.OpAuthzWriteRel}
}

// NewAuthzDeleteExecutor handles AuthzDeleteRel operations.
func NewAuthzDeleteExecutor(checker authz.Checker) *AuthzExecutor {
	return &AuthzExecutor{checker: checker, opType: operations.OpAuthzDeleteRel}
}

func (e *AuthzExecutor) Handles() operations.OpType { return e.opType }

func (e *AuthzExecutor) Execute(ctx context.Context, op store.Operation) (json.RawMessage, *operations.ExecutorError) {
	var in authzInput
	if err := json.Unmarshal(op.Input, &in); err != nil {
		return nil, operations.NewExecutorError(operations.ErrInvalidInput, fmt.Sprintf("unmarshaling authz tuple: %v", err))
	}

	tuple := authz.Tuple{
		ObjectType:  in.ObjectType,
		ObjectID:    in.ObjectID,
		Relation:    in.Relation,
		SubjectType: in.SubjectType,
		SubjectID:   in.SubjectID,
	}

	var err error
	switch e.opType {
	case operations.OpAuthzWriteRel:
		err = e.checker.Write(ctx, tuple)
	case operations.OpAuthzDeleteRel:
		err = e.checker.Delete(ctx, tuple)
	default:
		return nil, operations.NewExecutorError(operations.ErrNotHandled, string(e.opType))
	}
	if err != nil {
		return nil, classifyAuthzError(err)
	}
	return json.RawMessage(`{}`), nil
}

// classifyAuthzError maps an authz.Checker error onto an ExecutorError kind.
// Every error the client returns is wrapped in apperr.AuthorizationServerError
// (KindExternal), which almost always means the server was unreachable or
// briefly overloaded — worth retrying rather than failing the operation
// outright.
func classifyAuthzError(err error) *operations.ExecutorError {
	if appErr, ok := apperr.As(err); ok && appErr.Kind == apperr.KindExternal {
		return operations.NewExecutorError(operations.ErrTemporarilyUnavailable, err.Error())
	}
	return operations.NewExecutorError(operations.ErrInternal, err.Error())
}
