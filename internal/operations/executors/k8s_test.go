package executors

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/France-Nuage/plateforme-sub000/internal/operations"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

type stubK8sClient struct {
	grantCalls int
	grantErr   error
	revokeErr  error
}

func (s *stubK8sClient) GrantNamespaceAccess(ctx context.Context, namespace, subjectType, subjectID, clusterRole string) error {
	s.grantCalls++
	return s.grantErr
}

func (s *stubK8sClient) RevokeNamespaceAccess(ctx context.Context, namespace, subjectType, subjectID string) error {
	return s.revokeErr
}

func sampleK8sGrantOperation() store.Operation {
	in, _ := json.Marshal(k8sGrantInput{Namespace: "team-a", SubjectType: "user", SubjectID: "user-1", ClusterRole: "edit"})
	return store.Operation{OpType: string(operations.OpK8sGrantNamespace), Input: in}
}

func TestK8sExecutorGrantSuccess(t *testing.T) {
	client := &stubK8sClient{}
	exec := NewK8sGrantExecutor(client)

	_, execErr := exec.Execute(context.Background(), sampleK8sGrantOperation())
	if execErr != nil {
		t.Fatalf("Execute() error = %v", execErr)
	}
	if client.grantCalls != 1 {
		t.Errorf("grantCalls = %d, want 1", client.grantCalls)
	}
}

func TestK8sExecutorGrantNotFound(t *testing.T) {
	notFoundErr := apierrors.NewNotFound(schema.GroupResource{Resource: "namespaces"}, "team-a")
	client := &stubK8sClient{grantErr: notFoundErr}
	exec := NewK8sGrantExecutor(client)

	_, execErr := exec.Execute(context.Background(), sampleK8sGrantOperation())
	if execErr == nil || execErr.Kind != operations.ErrNotFound {
		t.Fatalf("Execute() error = %v, want ErrNotFound", execErr)
	}
}

func TestK8sExecutorGrantTransientError(t *testing.T) {
	client := &stubK8sClient{grantErr: errors.New("etcdserver: request timed out")}
	exec := NewK8sGrantExecutor(client)

	_, execErr := exec.Execute(context.Background(), sampleK8sGrantOperation())
	if execErr == nil || execErr.Kind != operations.ErrTemporarilyUnavailable {
		t.Fatalf("Execute() error = %v, want ErrTemporarilyUnavailable", execErr)
	}
}
