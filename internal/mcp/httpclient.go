package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/flexlog/internal/models"
)

// HTTPClient implements DataSource and FoodSource by calling the FlexLog
// REST API. Used for remote MCP mode where the binary runs locally (stdio)
// but snapshots and the food proxy live on the server (accessed over
// Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// may be empty.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

// LoadState fetches the device's snapshot from the server.
func (c *HTTPClient) LoadState(ctx context.Context, deviceID string) (*models.StoreState, error) {
	body, err := c.get(ctx, "/api/storage/snapshot", url.Values{"deviceId": {deviceID}})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Snapshot json.RawMessage `json:"snapshot"`
		Reason   string          `json:"reason"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("httpclient: decode snapshot: %w", err)
	}
	if resp.Reason != "" {
		return nil, fmt.Errorf("httpclient: snapshot unavailable: %s", resp.Reason)
	}
	if len(resp.Snapshot) == 0 || string(resp.Snapshot) == "null" {
		return nil, nil
	}

	state, err := models.DecodeStoreState(resp.Snapshot, time.Now())
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	return &state, nil
}

// Search proxies a food search. Failures yield an empty result, matching the
// server's own best-effort behavior.
func (c *HTTPClient) Search(ctx context.Context, q string) []models.FoodResult {
	body, err := c.get(ctx, "/api/foods/search", url.Values{"q": {q}})
	if err != nil {
		return []models.FoodResult{}
	}
	var resp struct {
		Results []models.FoodResult `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Results == nil {
		return []models.FoodResult{}
	}
	return resp.Results
}

// Barcode proxies a barcode lookup. Failures yield nil.
func (c *HTTPClient) Barcode(ctx context.Context, code string) *models.FoodResult {
	body, err := c.get(ctx, "/api/foods/barcode", url.Values{"code": {code}})
	if err != nil {
		return nil
	}
	var resp struct {
		Result *models.FoodResult `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil
	}
	return resp.Result
}
