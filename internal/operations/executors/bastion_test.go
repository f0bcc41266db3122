package executors

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/France-Nuage/plateforme-sub000/internal/bastion"
	"github.com/France-Nuage/plateforme-sub000/internal/operations"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

type stubBastionClient struct {
	createAgentCalls int
	deleteAgentErr   error
	createConnErr    error
	deleteConnErr    error
}

func (s *stubBastionClient) CreateAgent(ctx context.Context, name string) (*bastion.CreateAgentResponse, error) {
	s.createAgentCalls++
	return &bastion.CreateAgentResponse{AgentID: "agent-1", Token: "tok"}, nil
}

func (s *stubBastionClient) DeleteAgent(ctx context.Context, agentID string) error {
	return s.deleteAgentErr
}

func (s *stubBastionClient) CreateConnection(ctx context.Context, name, agentID, user, privateKey string) error {
	return s.createConnErr
}

func (s *stubBastionClient) DeleteConnection(ctx context.Context, name string) error {
	return s.deleteConnErr
}

func TestBastionExecutorCreateAgent(t *testing.T) {
	client := &stubBastionClient{}
	exec := NewBastionCreateAgentExecutor(client)
	in, _ := json.Marshal(bastionCreateAgentInput{Name: "instance-1"})
	op := store.Operation{OpType: string(operations.OpBastionCreateAgent), Input: in}

	out, execErr := exec.Execute(context.Background(), op)
	if execErr != nil {
		t.Fatalf("Execute() error = %v", execErr)
	}
	if client.createAgentCalls != 1 {
		t.Errorf("createAgentCalls = %d, want 1", client.createAgentCalls)
	}
	var resp bastion.CreateAgentResponse
	if err := json.Unmarshal(out, &resp); err != nil || resp.AgentID != "agent-1" {
		t.Errorf("output = %s, want create agent response", out)
	}
}

func TestBastionExecutorDeleteAgentNotFoundClassified(t *testing.T) {
	client := &stubBastionClient{deleteAgentErr: bastion.ErrNotFound}
	exec := NewBastionDeleteAgentExecutor(client)
	in, _ := json.Marshal(bastionDeleteAgentInput{AgentID: "agent-1"})
	op := store.Operation{OpType: string(operations.OpBastionDeleteAgent), Input: in}

	_, execErr := exec.Execute(context.Background(), op)
	if execErr == nil || execErr.Kind != operations.ErrNotFound {
		t.Fatalf("Execute() error = %v, want ErrNotFound classification", execErr)
	}
}

func TestBastionExecutorCreateConnectionUnauthorized(t *testing.T) {
	client := &stubBastionClient{createConnErr: bastion.ErrUnauthorized}
	exec := NewBastionCreateConnectionExecutor(client)
	in, _ := json.Marshal(bastionCreateConnectionInput{Name: "conn-1", AgentID: "agent-1", User: "francenuage", PrivateKey: "key"})
	op := store.Operation{OpType: string(operations.OpBastionCreateConnection), Input: in}

	_, execErr := exec.Execute(context.Background(), op)
	if execErr == nil || execErr.Kind != operations.ErrUnauthorized {
		t.Fatalf("Execute() error = %v, want ErrUnauthorized", execErr)
	}
}
