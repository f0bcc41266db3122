// Package hypervisor is a typed façade over the Proxmox VE HTTP API: the
// cluster/VM/SDN/firewall operations the control plane drives and the
// authoritative classifier that turns its HTTP responses into the
// apperr taxonomy.
package hypervisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
)

// rawResponse is what a round trip produces before classification: the
// status code, the body, and — for 302s — the redirect target.
type rawResponse struct {
	statusCode int
	body       []byte
	location   string
}

// Client talks to one Proxmox node or cluster endpoint. compute.Service
// caches one Client per Hypervisor row and reuses it across calls, so its
// circuit breaker state reflects that endpoint's reachability.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[rawResponse]
	baseURL    string
	token      string
	defaults   VMConfigDefaults
}

// NewClient builds a Client against baseURL (e.g. "https://pve.example.com:8006"),
// authenticating with an API token in the "PVEAPIToken=user@realm!tokenid=secret"
// form Proxmox expects in its Authorization header.
func NewClient(baseURL, token string, defaults VMConfigDefaults) *Client {
	breaker := gobreaker.NewCircuitBreaker[rawResponse](gobreaker.Settings{
		Name:        "hypervisor",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		breaker:  breaker,
		baseURL:  baseURL,
		token:    token,
		defaults: defaults,
	}
}

// do performs one HTTP round trip through the circuit breaker, retrying
// pure connectivity failures (the request never reached the API, or the
// breaker is open) with exponential backoff. A response the server
// actually sent back — even a 500 — is not retried here; that decision
// belongs to the caller once the response is classified.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var encoded []byte
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
	}

	operation := func() (rawResponse, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
		if err != nil {
			return rawResponse{}, backoff.Permanent(fmt.Errorf("building request: %w", err))
		}
		req.Header.Set("Authorization", c.token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.breaker.Execute(func() (rawResponse, error) {
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return rawResponse{}, err
			}
			defer func() { _ = resp.Body.Close() }()

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return rawResponse{}, err
			}
			return rawResponse{
				statusCode: resp.StatusCode,
				body:       raw,
				location:   resp.Header.Get("Location"),
			}, nil
		})
		if err != nil {
			return rawResponse{}, err
		}
		return resp, nil
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithMaxTries(3),
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
	)
	if err != nil {
		return nil, fmt.Errorf("calling hypervisor: %w", err)
	}

	if err := classifyResponse(resp.statusCode, resp.body, resp.location); err != nil {
		return nil, err
	}
	return resp.body, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decodeInto(body, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := c.do(ctx, http.MethodPost, path, in)
	if err != nil {
		return err
	}
	return decodeInto(body, out)
}

func (c *Client) put(ctx context.Context, path string, in, out any) error {
	body, err := c.do(ctx, http.MethodPut, path, in)
	if err != nil {
		return err
	}
	return decodeInto(body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

// envelope mirrors Proxmox's {"data": ...} response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func decodeInto(body []byte, out any) error {
	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decoding envelope: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}
