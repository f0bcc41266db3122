package executors

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/France-Nuage/plateforme-sub000/internal/operations"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
	"github.com/France-Nuage/plateforme-sub000/internal/vpn"
)

type stubVpnClient struct {
	inviteCalls int
	inviteErr   error
	updateErr   error
	removeErr   error
}

func (s *stubVpnClient) InviteUser(ctx context.Context, orgID string, req vpn.InviteRequest) (*vpn.InviteResponse, error) {
	s.inviteCalls++
	if s.inviteErr != nil {
		return nil, s.inviteErr
	}
	return &vpn.InviteResponse{InviteID: "inv-1", Token: "tok"}, nil
}

func (s *stubVpnClient) UpdateUser(ctx context.Context, orgID, userID string, req vpn.UpdateUserRequest) error {
	return s.updateErr
}

func (s *stubVpnClient) RemoveUser(ctx context.Context, orgID, userID string) error {
	return s.removeErr
}

func sampleVpnInviteOperation() store.Operation {
	in, _ := json.Marshal(vpnInviteInput{OrgID: "org-1", Email: "a@example.com", RoleID: "member"})
	return store.Operation{OpType: string(operations.OpVpnInviteUser), Input: in}
}

func TestVpnExecutorInviteSuccess(t *testing.T) {
	client := &stubVpnClient{}
	exec := NewVpnInviteExecutor(client)

	out, execErr := exec.Execute(context.Background(), sampleVpnInviteOperation())
	if execErr != nil {
		t.Fatalf("Execute() error = %v", execErr)
	}
	if client.inviteCalls != 1 {
		t.Errorf("inviteCalls = %d, want 1", client.inviteCalls)
	}
	var resp vpn.InviteResponse
	if err := json.Unmarshal(out, &resp); err != nil || resp.InviteID != "inv-1" {
		t.Errorf("output = %s, want invite response", out)
	}
}

func TestVpnExecutorInviteAlreadyInvitedIsSuccess(t *testing.T) {
	client := &stubVpnClient{inviteErr: vpn.ErrAlreadyInvited}
	exec := NewVpnInviteExecutor(client)

	_, execErr := exec.Execute(context.Background(), sampleVpnInviteOperation())
	if execErr != nil {
		t.Fatalf("Execute() error = %v, want nil for already-invited", execErr)
	}
}

func TestVpnExecutorRemoveTransientError(t *testing.T) {
	client := &stubVpnClient{removeErr: &vpn.StatusError{Code: 503}}
	exec := NewVpnRemoveExecutor(client)
	in, _ := json.Marshal(vpnRemoveInput{OrgID: "org-1", UserID: "user-1"})
	op := store.Operation{OpType: string(operations.OpVpnRemoveUser), Input: in}

	_, execErr := exec.Execute(context.Background(), op)
	if execErr == nil || execErr.Kind != operations.ErrTemporarilyUnavailable {
		t.Fatalf("Execute() error = %v, want ErrTemporarilyUnavailable", execErr)
	}
}
