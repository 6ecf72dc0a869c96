// Package syncclient pushes and pulls device snapshots to and from a FlexLog
// server.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/flexlog/internal/models"
)

const snapshotPath = "/api/storage/snapshot"

// ErrNotConfigured is returned when the server has no snapshot database.
var ErrNotConfigured = errors.New("snapshot storage not configured on server")

// Client talks to the snapshot endpoint.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	// backoff returns the wait before retry attempt n (n >= 1).
	backoff func(attempt int) time.Duration
}

// NewClient creates a client for serverURL. apiKey may be empty.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt-1)) * time.Second
		},
	}
}

type pushRequest struct {
	DeviceID string            `json:"deviceId"`
	State    models.StoreState `json:"state"`
}

type pushResponse struct {
	Synced bool   `json:"synced"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

type pullResponse struct {
	Snapshot json.RawMessage `json:"snapshot"`
	Reason   string          `json:"reason"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}

// do sends the request built by build up to 3 times with exponential
// backoff and returns the body of the first 200 response. 4xx responses are
// not retried.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}
		lastErr = fmt.Errorf("request failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}

// Push uploads state as the snapshot for deviceID.
func (c *Client) Push(ctx context.Context, deviceID string, state models.StoreState) error {
	data, err := json.Marshal(pushRequest{DeviceID: deviceID, State: state})
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	body, err := c.do(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, snapshotPath, data)
	})
	if err != nil {
		return fmt.Errorf("pushing snapshot: %w", err)
	}

	var resp pushResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decoding push response: %w", err)
	}
	if !resp.Synced {
		if resp.Reason == "not_configured" {
			return ErrNotConfigured
		}
		return fmt.Errorf("snapshot not synced: %s%s", resp.Reason, resp.Error)
	}
	return nil
}

// Pull downloads the snapshot for deviceID. It returns nil when the server
// holds no snapshot for the device.
func (c *Client) Pull(ctx context.Context, deviceID string) (*models.StoreState, error) {
	path := snapshotPath + "?deviceId=" + url.QueryEscape(deviceID)
	body, err := c.do(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, path, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("pulling snapshot: %w", err)
	}

	var resp pullResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding pull response: %w", err)
	}
	if resp.Reason == "not_configured" {
		return nil, ErrNotConfigured
	}
	if len(resp.Snapshot) == 0 || string(resp.Snapshot) == "null" {
		return nil, nil
	}

	state, err := models.DecodeStoreState(resp.Snapshot, time.Now())
	if err != nil {
		return nil, err
	}
	return &state, nil
}
