package executors

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/France-Nuage/plateforme-sub000/internal/authz"
	"github.com/France-Nuage/plateforme-sub000/internal/operations"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

func sampleAuthzOperation(opType operations.OpType) store.Operation {
	in, _ := json.Marshal(authzInput{
		ObjectType:  "project",
		ObjectID:    "proj-1",
		Relation:    "member",
		SubjectType: "user",
		SubjectID:   "user-1",
	})
	return store.Operation{OpType: string(opType), Input: in}
}

func TestAuthzExecutorWriteDelete(t *testing.T) {
	mock := authz.NewMock()

	write := NewAuthzWriteExecutor(mock)
	if got := write.Handles(); got != operations.OpAuthzWriteRel {
		t.Fatalf("Handles() = %v, want OpAuthzWriteRel", got)
	}
	if _, execErr := write.Execute(context.Background(), sampleAuthzOperation(operations.OpAuthzWriteRel)); execErr != nil {
		t.Fatalf("Execute() error = %v", execErr)
	}
	if len(mock.Written) != 1 {
		t.Fatalf("Written = %d tuples, want 1", len(mock.Written))
	}

	del := NewAuthzDeleteExecutor(mock)
	if _, execErr := del.Execute(context.Background(), sampleAuthzOperation(operations.OpAuthzDeleteRel)); execErr != nil {
		t.Fatalf("Execute() error = %v", execErr)
	}
	if len(mock.Deleted) != 1 {
		t.Fatalf("Deleted = %d tuples, want 1", len(mock.Deleted))
	}
}

func TestAuthzExecutorInvalidInput(t *testing.T) {
	write := NewAuthzWriteExecutor(authz.NewMock())
	op := store.Operation{OpType: string(operations.OpAuthzWriteRel), Input: json.RawMessage(`not json`)}

	_, execErr := write.Execute(context.Background(), op)
	if execErr == nil {
		t.Fatal("Execute() error = nil, want InvalidInput")
	}
	if execErr.Kind != operations.ErrInvalidInput {
		t.Errorf("Kind = %v, want ErrInvalidInput", execErr.Kind)
	}
}
