package compute

import (
	"context"
	"testing"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/authz"
)

// denyingChecker always refuses Check, so authorize's Forbidden translation
// can be exercised without a real authorization server.
type denyingChecker struct{ authz.Mock }

func (denyingChecker) Check(ctx context.Context, subjectType, subjectID, permission, objectType, objectID string) (bool, error) {
	return false, nil
}

func TestAuthorizeTranslatesDenialToForbidden(t *testing.T) {
	s := &Service{authz: &denyingChecker{}}
	err := s.authorize(context.Background(), authz.Principal{Type: "user", ID: "u1"}, "CreateVPC", "organization", "org1")
	if err == nil {
		t.Fatalf("expected an error")
	}
	apperrErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected an apperr.Error, got %T: %v", err, err)
	}
	if apperrErr.Kind != apperr.KindForbidden {
		t.Fatalf("expected KindForbidden, got %v", apperrErr.Kind)
	}
}

func TestAuthorizeAllowsWhenCheckerApproves(t *testing.T) {
	s := &Service{authz: authz.NewMock()}
	err := s.authorize(context.Background(), authz.Principal{Type: "user", ID: "u1"}, "CreateVPC", "organization", "org1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
