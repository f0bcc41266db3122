// Package vpn talks to the zero-trust VPN controller's REST API: inviting,
// updating and removing organization users.
package vpn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls the VPN controller's integration API.
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

// InviteRequest is the body posted to create an organization invite.
type InviteRequest struct {
	Email         string `json:"email"`
	RoleID        string `json:"roleId"`
	SendEmail     bool   `json:"sendEmail"`
	ValidForHours *int64 `json:"validForHours,omitempty"`
}

// InviteResponse is the controller's response to a successful invite.
type InviteResponse struct {
	InviteID  string `json:"inviteId"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// InviteUser invites email to orgID with roleID. Re-inviting an email that
// already has a pending invite for orgID returns ErrAlreadyInvited rather
// than an error an executor should retry — callers that want idempotent
// semantics check for it.
func (c *Client) InviteUser(ctx context.Context, orgID string, req InviteRequest) (*InviteResponse, error) {
	var resp InviteResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/org/%s/create-invite", orgID), req, &resp)
	return &resp, err
}

// UpdateUserRequest patches a member's role and/or status within the org.
type UpdateUserRequest struct {
	RoleID *string `json:"roleId,omitempty"`
	Status *string `json:"status,omitempty"`
}

// UpdateUser patches userID's membership within orgID.
func (c *Client) UpdateUser(ctx context.Context, orgID, userID string, req UpdateUserRequest) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/org/%s/user/%s", orgID, userID), req, nil)
}

// RemoveUser removes userID from orgID. Removing a user who is already
// absent from the org is not an error — the call is idempotent.
func (c *Client) RemoveUser(ctx context.Context, orgID, userID string) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/org/%s/user/%s", orgID, userID), nil, nil)
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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &StatusError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusConflict {
		return ErrAlreadyInvited
	}
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
