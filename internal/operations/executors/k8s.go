package executors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/k8s"
	"github.com/France-Nuage/plateforme-sub000/internal/operations"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// k8sCaller is the subset of *k8s.Client an executor needs; tests supply a
// fake.
type k8sCaller interface {
	GrantNamespaceAccess(ctx context.Context, namespace, subjectType, subjectID, clusterRole string) error
	RevokeNamespaceAccess(ctx context.Context, namespace, subjectType, subjectID string) error
}

// K8sExecutor grants/revokes namespace access on the workload cluster. It
// handles K8sGrantNamespace and K8sRevokeNamespace; register one instance
// per op_type with the dispatcher.
type K8sExecutor struct {
	client k8sCaller
	opType operations.OpType
}

func NewK8sGrantExecutor(client k8sCaller) *K8sExecutor {
	return &K8sExecutor{client: client, opType: operations.OpK8sGrantNamespace}
}

func NewK8sRevokeExecutor(client k8sCaller) *K8sExecutor {
	return &K8sExecutor{client: client, opType: operations.OpK8sRevokeNamespace}
}

func (e *K8sExecutor) Handles() operations.OpType { return e.opType }

type k8sGrantInput struct {
	Namespace   string `json:"namespace"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
	ClusterRole string `json:"cluster_role"`
}

type k8sRevokeInput struct {
	Namespace   string `json:"namespace"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
}

func (e *K8sExecutor) Execute(ctx context.Context, op store.Operation) (json.RawMessage, *operations.ExecutorError) {
	switch e.opType {
	case operations.OpK8sGrantNamespace:
		var in k8sGrantInput
		if err := json.Unmarshal(op.Input, &in); err != nil {
			return nil, operations.NewExecutorError(operations.ErrInvalidInput, fmt.Sprintf("unmarshaling grant namespace: %v", err))
		}
		if err := e.client.GrantNamespaceAccess(ctx, in.Namespace, in.SubjectType, in.SubjectID, in.ClusterRole); err != nil {
			return nil, classifyK8sError(err)
		}
		return json.RawMessage(`{}`), nil

	case operations.OpK8sRevokeNamespace:
		var in k8sRevokeInput
		if err := json.Unmarshal(op.Input, &in); err != nil {
			return nil, operations.NewExecutorError(operations.ErrInvalidInput, fmt.Sprintf("unmarshaling revoke namespace: %v", err))
		}
		if err := e.client.RevokeNamespaceAccess(ctx, in.Namespace, in.SubjectType, in.SubjectID); err != nil {
			return nil, classifyK8sError(err)
		}
		return json.RawMessage(`{}`), nil

	default:
		return nil, operations.NewExecutorError(operations.ErrNotHandled, string(e.opType))
	}
}

// classifyK8sError maps a client-go API error onto an ExecutorError kind.
// Anything other than a clean not-found is treated as a transient API
// server condition worth retrying — client-go itself already distinguishes
// throttling/conflict from hard rejections via its own status codes, but
// this executor only needs the retry/no-retry split.
func classifyK8sError(err error) *operations.ExecutorError {
	if k8s.IsNotFound(err) {
		return operations.NewExecutorError(operations.ErrNotFound, err.Error())
	}
	return operations.NewExecutorError(operations.ErrTemporarilyUnavailable, err.Error())
}
