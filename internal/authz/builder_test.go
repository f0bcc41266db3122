package authz

import (
	"context"
	"testing"
)

func TestCheckDispatch(t *testing.T) {
	mock := NewMock()

	allowed, err := NewCheck(mock).
		For(Principal{Type: "user", ID: "alice"}).
		Can("read").
		On("vpc", "vpc-1").
		Dispatch(context.Background())

	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !allowed {
		t.Error("Dispatch() = false, want true against Mock")
	}
}

func TestMockRecordsWriteAndDelete(t *testing.T) {
	mock := NewMock()
	tuple := Tuple{ObjectType: "vpc", ObjectID: "vpc-1", Relation: "owner", SubjectType: "user", SubjectID: "alice"}

	if err := mock.Write(context.Background(), tuple); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(mock.Written) != 1 || mock.Written[0] != tuple {
		t.Errorf("Written = %v, want [%v]", mock.Written, tuple)
	}

	if err := mock.Delete(context.Background(), tuple); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(mock.Deleted) != 1 || mock.Deleted[0] != tuple {
		t.Errorf("Deleted = %v, want [%v]", mock.Deleted, tuple)
	}
}
