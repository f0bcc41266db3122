// Package bastion talks to the SSH bastion's REST API: registering agents
// on provisioned instances and wiring connections that route an operator's
// SSH session through the bastion to the instance's guest agent.
package bastion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls the SSH bastion's integration API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
}

// NewClient builds a Client against apiURL, authenticating with apiKey.
func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
		apiKey:     apiKey,
	}
}

// CreateAgentRequest registers a new agent identity for an instance.
type CreateAgentRequest struct {
	Name string `json:"name"`
}

// CreateAgentResponse is the bastion's response to a successful agent
// registration.
type CreateAgentResponse struct {
	AgentID string `json:"id"`
	Token   string `json:"token"`
}

// CreateAgent registers an agent named name. Re-registering an existing
// agent name returns the existing agent rather than an error.
func (c *Client) CreateAgent(ctx context.Context, name string) (*CreateAgentResponse, error) {
	var resp CreateAgentResponse
	err := c.do(ctx, http.MethodPost, "/api/agents", CreateAgentRequest{Name: name}, &resp)
	return &resp, err
}

// DeleteAgent removes an agent by ID. Deleting an agent that no longer
// exists is not an error.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	err := c.do(ctx, http.MethodDelete, "/api/agents/"+agentID, nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}

// ConnectionSecret carries the SSH materials the bastion injects into the
// connection's environment/filesystem at session time.
type ConnectionSecret struct {
	Host       string `json:"envvar:HOST"`
	User       string `json:"envvar:USER"`
	PrivateKey string `json:"filesystem:SSH_PRIVATE_KEY"`
}

// CreateConnectionRequest links an agent to SSH credentials under a named
// connection operators select when opening a session.
type CreateConnectionRequest struct {
	Name               string           `json:"name"`
	ConnectionType     string           `json:"type"`
	Subtype            string           `json:"subtype"`
	AgentID            string           `json:"agent_id"`
	Secret             ConnectionSecret `json:"secret"`
	AccessModeConnect  bool             `json:"access_mode_connect"`
	AccessModeExec     bool             `json:"access_mode_exec"`
	AccessModeRunbooks bool             `json:"access_mode_runbooks"`
}

// CreateConnection wires a new SSH connection named name to agentID, using
// user/privateKey as the guest credentials. privateKey is sent to the
// bastion unchanged; CreateInstance supplies a PEM-encoded OpenSSH key.
func (c *Client) CreateConnection(ctx context.Context, name, agentID, user, privateKey string) error {
	req := CreateConnectionRequest{
		Name:           name,
		ConnectionType: "application",
		Subtype:        "ssh",
		AgentID:        agentID,
		Secret: ConnectionSecret{
			Host:       "127.0.0.1",
			User:       user,
			PrivateKey: privateKey,
		},
		AccessModeConnect: true,
		AccessModeExec:    true,
	}
	return c.do(ctx, http.MethodPost, "/api/connections", req, nil)
}

// DeleteConnection removes a named connection. Deleting a connection that
// no longer exists is not an error.
func (c *Client) DeleteConnection(ctx context.Context, name string) error {
	err := c.do(ctx, http.MethodDelete, "/api/connections/"+name, nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &StatusError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 500 {
		return &StatusError{Code: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return &StatusError{Code: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
