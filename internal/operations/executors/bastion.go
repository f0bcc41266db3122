package executors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/bastion"
	"github.com/France-Nuage/plateforme-sub000/internal/operations"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// bastionCaller is the subset of *bastion.Client an executor needs; tests
// supply a fake.
type bastionCaller interface {
	CreateAgent(ctx context.Context, name string) (*bastion.CreateAgentResponse, error)
	DeleteAgent(ctx context.Context, agentID string) error
	CreateConnection(ctx context.Context, name, agentID, user, privateKey string) error
	DeleteConnection(ctx context.Context, name string) error
}

// BastionExecutor creates/deletes SSH agents and connections at the
// bastion. It handles BastionCreateAgent, BastionDeleteAgent,
// BastionCreateConnection and BastionDeleteConnection; register one
// instance per op_type with the dispatcher.
type BastionExecutor struct {
	client bastionCaller
	opType operations.OpType
}

func NewBastionCreateAgentExecutor(client bastionCaller) *BastionExecutor {
	return &BastionExecutor{client: client, opType: operations.OpBastionCreateAgent}
}

func NewBastionDeleteAgentExecutor(client bastionCaller) *BastionExecutor {
	return &BastionExecutor{client: client, opType: operations.OpBastionDeleteAgent}
}

func NewBastionCreateConnectionExecutor(client bastionCaller) *BastionExecutor {
	return &BastionExecutor{client: client, opType: operations.OpBastionCreateConnection}
}

func NewBastionDeleteConnectionExecutor(client bastionCaller) *BastionExecutor {
	return &BastionExecutor{client: client, opType: operations.OpBastionDeleteConnection}
}

func (e *BastionExecutor) Handles() operations.OpType { return e.opType }

type bastionCreateAgentInput struct {
	Name string `json:"name"`
}

type bastionDeleteAgentInput struct {
	AgentID string `json:"agent_id"`
}

type bastionCreateConnectionInput struct {
	Name       string `json:"name"`
	AgentID    string `json:"agent_id"`
	User       string `json:"user"`
	PrivateKey string `json:"private_key"`
}

type bastionDeleteConnectionInput struct {
	Name string `json:"name"`
}

func (e *BastionExecutor) Execute(ctx context.Context, op store.Operation) (json.RawMessage, *operations.ExecutorError) {
	switch e.opType {
	case operations.OpBastionCreateAgent:
		return e.createAgent(ctx, op)
	case operations.OpBastionDeleteAgent:
		return e.deleteAgent(ctx, op)
	case operations.OpBastionCreateConnection:
		return e.createConnection(ctx, op)
	case operations.OpBastionDeleteConnection:
		return e.deleteConnection(ctx, op)
	default:
		return nil, operations.NewExecutorError(operations.ErrNotHandled, string(e.opType))
	}
}

func (e *BastionExecutor) createAgent(ctx context.Context, op store.Operation) (json.RawMessage, *operations.ExecutorError) {
	var in bastionCreateAgentInput
	if err := json.Unmarshal(op.Input, &in); err != nil {
		return nil, operations.NewExecutorError(operations.ErrInvalidInput, fmt.Sprintf("unmarshaling create agent: %v", err))
	}
	resp, err := e.client.CreateAgent(ctx, in.Name)
	if err != nil {
		return nil, classifyBastionError(err)
	}
	out, _ := json.Marshal(resp)
	return out, nil
}

func (e *BastionExecutor) deleteAgent(ctx context.Context, op store.Operation) (json.RawMessage, *operations.ExecutorError) {
	var in bastionDeleteAgentInput
	if err := json.Unmarshal(op.Input, &in); err != nil {
		return nil, operations.NewExecutorError(operations.ErrInvalidInput, fmt.Sprintf("unmarshaling delete agent: %v", err))
	}
	if err := e.client.DeleteAgent(ctx, in.AgentID); err != nil {
		return nil, classifyBastionError(err)
	}
	return json.RawMessage(`{}`), nil
}

func (e *BastionExecutor) createConnection(ctx context.Context, op store.Operation) (json.RawMessage, *operations.ExecutorError) {
	var in bastionCreateConnectionInput
	if err := json.Unmarshal(op.Input, &in); err != nil {
		return nil, operations.NewExecutorError(operations.ErrInvalidInput, fmt.Sprintf("unmarshaling create connection: %v", err))
	}
	if err := e.client.CreateConnection(ctx, in.Name, in.AgentID, in.User, in.PrivateKey); err != nil {
		return nil, classifyBastionError(err)
	}
	return json.RawMessage(`{}`), nil
}

func (e *BastionExecutor) deleteConnection(ctx context.Context, op store.Operation) (json.RawMessage, *operations.ExecutorError) {
	var in bastionDeleteConnectionInput
	if err := json.Unmarshal(op.Input, &in); err != nil {
		return nil, operations.NewExecutorError(operations.ErrInvalidInput, fmt.Sprintf("unmarshaling delete connection: %v", err))
	}
	if err := e.client.DeleteConnection(ctx, in.Name); err != nil {
		return nil, classifyBastionError(err)
	}
	return json.RawMessage(`{}`), nil
}

func classifyBastionError(err error) *operations.ExecutorError {
	switch {
	case bastion.IsNotFound(err):
		return operations.NewExecutorError(operations.ErrNotFound, err.Error())
	case errors.Is(err, bastion.ErrUnauthorized):
		return operations.NewExecutorError(operations.ErrUnauthorized, err.Error())
	}

	var statusErr *bastion.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code >= 500 || statusErr.Err != nil {
			return operations.NewExecutorError(operations.ErrTemporarilyUnavailable, err.Error())
		}
		return operations.NewExecutorError(operations.ErrRejected, err.Error())
	}
	return operations.NewExecutorError(operations.ErrInternal, err.Error())
}
