// Package script talks to a spreadsheet-backed web endpoint (a Google Apps
// Script deployment or anything speaking the same contract): POST with a
// PUSH action replaces the remote copy, GET with a PULL action returns it,
// GET with a PING action reports link health.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"budgetbabah/internal/core"
	"budgetbabah/internal/remote"
)

type Client struct {
	endpoint string
	httpc    *http.Client
}

var _ remote.Replica = (*Client)(nil)

func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpc:    http.DefaultClient,
	}
}

// NewWithHTTPClient is used by tests and callers that need custom transport
// settings. Timeout semantics stay with the underlying client.
func NewWithHTTPClient(endpoint string, httpc *http.Client) *Client {
	return &Client{endpoint: endpoint, httpc: httpc}
}

type pushRequest struct {
	Action string            `json:"action"`
	Data   core.FullYearData `json:"data"`
}

// Push sends the whole snapshot under a PUSH action. The response is not
// interpreted; the endpoint runs in fire-and-forget mode and success only
// means the request left without a transport error.
func (c *Client) Push(ctx context.Context, year core.FullYearData) error {
	body, err := json.Marshal(pushRequest{Action: "PUSH", Data: year})
	if err != nil {
		return fmt.Errorf("marshal push body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("push to endpoint: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Pull fetches the remote snapshot under a PULL action. A decode failure or
// non-success status is an error; an empty decoded object is returned as an
// empty snapshot with a nil error so callers leave local state untouched.
func (c *Client) Pull(ctx context.Context) (core.FullYearData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?action=PULL", nil)
	if err != nil {
		return nil, fmt.Errorf("build pull request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pull from endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("pull from endpoint: unexpected status %d", resp.StatusCode)
	}

	var year core.FullYearData
	if err := json.NewDecoder(resp.Body).Decode(&year); err != nil {
		return nil, fmt.Errorf("decode pull response: %w", err)
	}
	return year, nil
}

// Ping reports link health under a PING action. Any completed 2xx response
// is healthy.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?action=PING", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("ping endpoint: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ping endpoint: unexpected status %d", resp.StatusCode)
	}
	return nil
}
