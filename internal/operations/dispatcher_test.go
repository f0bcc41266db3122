package operations

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

type stubExecutor struct {
	opType OpType
	result json.RawMessage
	err    *ExecutorError
}

func (s stubExecutor) Handles() OpType { return s.opType }

func (s stubExecutor) Execute(ctx context.Context, op store.Operation) (json.RawMessage, *ExecutorError) {
	return s.result, s.err
}

func TestDispatcherLookup(t *testing.T) {
	authz := stubExecutor{opType: OpAuthzWriteRel}
	vpn := stubExecutor{opType: OpVpnInviteUser}
	d := NewDispatcher(authz, vpn)

	if got := d.Lookup(store.Operation{OpType: string(OpAuthzWriteRel)}); got == nil {
		t.Fatal("Lookup() = nil, want authz executor")
	}
	if got := d.Lookup(store.Operation{OpType: string(OpK8sGrantNamespace)}); got != nil {
		t.Errorf("Lookup() = %v, want nil for unregistered op_type", got)
	}
}

func TestDispatcherDuplicateExecutorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewDispatcher() did not panic on duplicate executor")
		}
	}()
	NewDispatcher(stubExecutor{opType: OpAuthzWriteRel}, stubExecutor{opType: OpAuthzWriteRel})
}
