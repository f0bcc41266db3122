package rpc

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
)

func TestToStatusTranslatesKnownKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"forbidden", apperr.Forbidden("CreateInstance", "project/p1"), codes.PermissionDenied},
		{"not found", apperr.NotFound("instance"), codes.NotFound},
		{"conflict", apperr.SlugAlreadyExists("prod"), codes.AlreadyExists},
		{"input", apperr.MalformedID("not-a-uuid"), codes.InvalidArgument},
		{"unauthenticated", apperr.Unauthenticated("no principal"), codes.Unauthenticated},
		{"external", apperr.UnreachableProvider("timeout"), codes.Unavailable},
		{"internal", apperr.Internal("boom"), codes.Internal},
		{"unclassified", errors.New("plain error"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := status.Code(toStatus(tt.err))
			if got != tt.want {
				t.Errorf("toStatus(%v) code = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestToStatusNilIsNil(t *testing.T) {
	if err := toStatus(nil); err != nil {
		t.Fatalf("toStatus(nil) = %v, want nil", err)
	}
}
