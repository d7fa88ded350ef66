// Package engine talks to the remote processing engine: the HTTP endpoints
// used for polling and snapshot seeding, and the websocket event link.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipstudio/internal/domain"
)

// Options controls how the engine client is configured.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client wraps the engine's HTTP surface. It performs no reconciliation of
// its own; responses are handed to the coordinator as-is.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Snapshot is the one-time seed of current engine state fetched at startup,
// before the event link is up.
type Snapshot struct {
	Jobs     []domain.JobUpdate     `json:"jobs"`
	Projects []domain.ProjectUpdate `json:"projects"`
}

// NewClient validates the options and returns a configured client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("engine: base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: base, httpClient: httpClient}, nil
}

// ActiveJobs fetches the currently pending/running jobs. This is the poll
// endpoint: it deliberately excludes finished jobs to bound payload size.
func (c *Client) ActiveJobs(ctx context.Context) ([]domain.JobUpdate, error) {
	var out struct {
		Jobs []domain.JobUpdate `json:"jobs"`
	}
	if err := c.getJSON(ctx, "/v1/jobs/active", &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// FetchSnapshot fetches the full current state for seeding the store.
func (c *Client) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	var out Snapshot
	if err := c.getJSON(ctx, "/v1/snapshot", &out); err != nil {
		return Snapshot{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("engine: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("engine: %s: unexpected status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("engine: %s: decode response: %w", path, err)
	}
	return nil
}
