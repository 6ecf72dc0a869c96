// Package food looks up nutrition data from USDA FoodData Central (text
// search) and Open Food Facts (barcodes), normalizes it and caches the
// results.
//
// Lookups are best effort: upstream failures are logged and surface as empty
// results, never as errors.
package food

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/flexlog/internal/metrics"
	"github.com/meltforce/flexlog/internal/models"
)

const (
	DefaultFDCBaseURL = "https://api.nal.usda.gov/fdc/v1"
	DefaultOFFBaseURL = "https://world.openfoodfacts.org"
	DefaultUserAgent  = "FlexLog/0.1 (example@example.com)"

	DefaultSearchTTL  = time.Hour
	DefaultBarcodeTTL = 24 * time.Hour

	searchPageSize = 15
	maxBodyBytes   = 4 << 20
)

var fdcDataTypes = []string{"Foundation", "SR Legacy", "Survey (FNDDS)"}

// Config configures the upstream APIs. Empty fields take the defaults above.
// Without an FDCAPIKey, Search always returns no results.
type Config struct {
	FDCBaseURL string
	FDCAPIKey  string
	OFFBaseURL string
	UserAgent  string
	SearchTTL  time.Duration
	BarcodeTTL time.Duration
}

func (c *Config) applyDefaults() {
	if c.FDCBaseURL == "" {
		c.FDCBaseURL = DefaultFDCBaseURL
	}
	if c.OFFBaseURL == "" {
		c.OFFBaseURL = DefaultOFFBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.SearchTTL <= 0 {
		c.SearchTTL = DefaultSearchTTL
	}
	if c.BarcodeTTL <= 0 {
		c.BarcodeTTL = DefaultBarcodeTTL
	}
	c.FDCBaseURL = strings.TrimRight(c.FDCBaseURL, "/")
	c.OFFBaseURL = strings.TrimRight(c.OFFBaseURL, "/")
}

// Service performs cached food lookups.
type Service struct {
	cfg        Config
	cache      *Cache
	httpClient *http.Client
	metrics    *metrics.Manager
	logger     *slog.Logger
}

// NewService creates a lookup service. cache, httpClient and m may be nil;
// a nil cache gets a memory-only one.
func NewService(cfg Config, cache *Cache, httpClient *http.Client, m *metrics.Manager, logger *slog.Logger) *Service {
	cfg.applyDefaults()
	if cache == nil {
		cache = NewCache(DefaultCacheSize, nil, nil, logger)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Service{
		cfg:        cfg,
		cache:      cache,
		httpClient: httpClient,
		metrics:    m,
		logger:     logger,
	}
}

func searchKey(q string) string { return "fdc:search:" + strings.ToLower(q) }
func barcodeKey(code string) string { return "off:barcode:" + code }

// Search returns FDC foods matching q. The result is never nil.
func (s *Service) Search(ctx context.Context, q string) []models.FoodResult {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.FoodResult{}
	}

	key := searchKey(q)
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached []models.FoodResult
		if err := json.Unmarshal(data, &cached); err == nil && cached != nil {
			s.metrics.FoodLookup("fdc", "hit")
			return cached
		}
		s.logger.Warn("discarding unreadable cache entry", "key", key)
	}

	if s.cfg.FDCAPIKey == "" {
		s.metrics.FoodLookup("fdc", "disabled")
		return []models.FoodResult{}
	}

	results, err := s.fetchFDC(ctx, q)
	if err != nil {
		s.logger.Warn("fdc search failed", "query", q, "error", err)
		s.metrics.FoodLookup("fdc", "error")
		return []models.FoodResult{}
	}
	s.metrics.FoodLookup("fdc", "miss")

	if data, err := json.Marshal(results); err == nil {
		s.cache.Set(ctx, key, data, s.cfg.SearchTTL)
	}
	return results
}

func (s *Service) fetchFDC(ctx context.Context, q string) ([]models.FoodResult, error) {
	body, err := json.Marshal(map[string]any{
		"query":    q,
		"pageSize": searchPageSize,
		"dataType": fdcDataTypes,
	})
	if err != nil {
		return nil, err
	}

	u := s.cfg.FDCBaseURL + "/foods/search?api_key=" + url.QueryEscape(s.cfg.FDCAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := s.do(req)
	if err != nil {
		return nil, err
	}
	return NormalizeFDCSearch(data)
}

// Barcode returns the OFF product for code, or nil when it is unknown or the
// lookup failed. Only found products are cached.
func (s *Service) Barcode(ctx context.Context, code string) *models.FoodResult {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}

	key := barcodeKey(code)
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached models.FoodResult
		if err := json.Unmarshal(data, &cached); err == nil {
			s.metrics.FoodLookup("off", "hit")
			return &cached
		}
		s.logger.Warn("discarding unreadable cache entry", "key", key)
	}

	u := fmt.Sprintf("%s/api/v2/product/%s.json", s.cfg.OFFBaseURL, url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		s.logger.Warn("off barcode request", "code", code, "error", err)
		return nil
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	data, err := s.do(req)
	if err != nil {
		s.logger.Warn("off barcode lookup failed", "code", code, "error", err)
		s.metrics.FoodLookup("off", "error")
		return nil
	}
	result, err := NormalizeOFFProduct(data, code)
	if err != nil {
		s.logger.Warn("off barcode decode failed", "code", code, "error", err)
		s.metrics.FoodLookup("off", "error")
		return nil
	}
	if result == nil {
		s.metrics.FoodLookup("off", "empty")
		return nil
	}
	s.metrics.FoodLookup("off", "miss")

	if data, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, key, data, s.cfg.BarcodeTTL)
	}
	return result
}

func (s *Service) do(req *http.Request) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return data, nil
}
