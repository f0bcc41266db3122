package executors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/operations"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
	"github.com/France-Nuage/plateforme-sub000/internal/vpn"
)

// vpnCaller is the subset of *vpn.Client an executor needs; tests supply a
// fake.
type vpnCaller interface {
	InviteUser(ctx context.Context, orgID string, req vpn.InviteRequest) (*vpn.InviteResponse, error)
	UpdateUser(ctx context.Context, orgID, userID string, req vpn.UpdateUserRequest) error
	RemoveUser(ctx context.Context, orgID, userID string) error
}

// VpnExecutor invites, updates and removes organization users at the VPN
// controller. It handles VpnInviteUser, VpnUpdateUser and VpnRemoveUser;
// register one instance per op_type with the dispatcher.
type VpnExecutor struct {
	client vpnCaller
	opType operations.OpType
}

func NewVpnInviteExecutor(client vpnCaller) *VpnExecutor {
	return &VpnExecutor{client: client, opType: operations.OpVpnInviteUser}
}

func NewVpnUpdateExecutor(client vpnCaller) *VpnExecutor {
	return &VpnExecutor{client: client, opType: operations.OpVpnUpdateUser}
}

func NewVpnRemoveExecutor(client vpnCaller) *VpnExecutor {
	return &VpnExecutor{client: client, opType: operations.OpVpnRemoveUser}
}

func (e *VpnExecutor) Handles() operations.OpType { return e.opType }

type vpnInviteInput struct {
	OrgID         string `json:"org_id"`
	Email         string `json:"email"`
	RoleID        string `json:"role_id"`
	SendEmail     bool   `json:"send_email"`
	ValidForHours *int64 `json:"valid_for_hours,omitempty"`
}

type vpnUpdateInput struct {
	OrgID  string  `json:"org_id"`
	UserID string  `json:"user_id"`
	RoleID *string `json:"role_id,omitempty"`
	Status *string `json:"status,omitempty"`
}

type vpnRemoveInput struct {
	OrgID  string `json:"org_id"`
	UserID string `json:"user_id"`
}

func (e *VpnExecutor) Execute(ctx context.Context, op store.Operation) (json.RawMessage, *operations.ExecutorError) {
	switch e.opType {
	case operations.OpVpnInviteUser:
		return e.invite(ctx, op)
	case operations.OpVpnUpdateUser:
		return e.update(ctx, op)
	case operations.OpVpnRemoveUser:
		return e.remove(ctx, op)
	default:
		return nil, operations.NewExecutorError(operations.ErrNotHandled, string(e.opType))
	}
}

func (e *VpnExecutor) invite(ctx context.Context, op store.Operation) (json.RawMessage, *operations.ExecutorError) {
	var in vpnInviteInput
	if err := json.Unmarshal(op.Input, &in); err != nil {
		return nil, operations.NewExecutorError(operations.ErrInvalidInput, fmt.Sprintf("unmarshaling vpn invite: %v", err))
	}

	resp, err := e.client.InviteUser(ctx, in.OrgID, vpn.InviteRequest{
		Email:         in.Email,
		RoleID:        in.RoleID,
		SendEmail:     in.SendEmail,
		ValidForHours: in.ValidForHours,
	})
	if vpn.IsAlreadyInvited(err) {
		return json.RawMessage(`{"already_invited":true}`), nil
	}
	if err != nil {
		return nil, classifyVpnError(err)
	}

	out, _ := json.Marshal(resp)
	return out, nil
}

func (e *VpnExecutor) update(ctx context.Context, op store.Operation) (json.RawMessage, *operations.ExecutorError) {
	var in vpnUpdateInput
	if err := json.Unmarshal(op.Input, &in); err != nil {
		return nil, operations.NewExecutorError(operations.ErrInvalidInput, fmt.Sprintf("unmarshaling vpn update: %v", err))
	}

	err := e.client.UpdateUser(ctx, in.OrgID, in.UserID, vpn.UpdateUserRequest{RoleID: in.RoleID, Status: in.Status})
	if err != nil {
		return nil, classifyVpnError(err)
	}
	return json.RawMessage(`{}`), nil
}

func (e *VpnExecutor) remove(ctx context.Context, op store.Operation) (json.RawMessage, *operations.ExecutorError) {
	var in vpnRemoveInput
	if err := json.Unmarshal(op.Input, &in); err != nil {
		return nil, operations.NewExecutorError(operations.ErrInvalidInput, fmt.Sprintf("unmarshaling vpn remove: %v", err))
	}

	if err := e.client.RemoveUser(ctx, in.OrgID, in.UserID); err != nil {
		return nil, classifyVpnError(err)
	}
	return json.RawMessage(`{}`), nil
}

func classifyVpnError(err error) *operations.ExecutorError {
	switch {
	case vpn.IsNotFound(err):
		return operations.NewExecutorError(operations.ErrNotFound, err.Error())
	case errors.Is(err, vpn.ErrUnauthorized):
		return operations.NewExecutorError(operations.ErrUnauthorized, err.Error())
	}

	var statusErr *vpn.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code >= 500 || statusErr.Err != nil {
			return operations.NewExecutorError(operations.ErrTemporarilyUnavailable, err.Error())
		}
		return operations.NewExecutorError(operations.ErrRejected, err.Error())
	}
	return operations.NewExecutorError(operations.ErrInternal, err.Error())
}
