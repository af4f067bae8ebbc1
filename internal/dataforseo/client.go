// Package dataforseo is the gateway to the DataForSEO search-volume API.
//
// The gateway never fails a reconciliation: per-batch provider errors are
// logged and treated as zero results for that batch, and a fetch that yields
// nothing overall returns nil, which callers read as "no fresh data, reuse
// what is stored".
package dataforseo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mostaks/kwr-dashboard-server/internal/domain"
	"github.com/mostaks/kwr-dashboard-server/internal/ratelimit"
	"github.com/mostaks/kwr-dashboard-server/internal/util"
)

const (
	defaultBaseURL   = "https://api.dataforseo.com"
	searchVolumePath = "/v3/keywords_data/google_ads/search_volume/live"

	// Provider batch cap per request.
	defaultBatchSize = 1000

	// How far back the monthly breakdown reaches.
	lookbackYears = 3

	defaultTimeout  = 60 * time.Second
	defaultRPS      = 2.0
	defaultBurst    = 5
	defaultLocation = "Australia"
	defaultLanguage = "English"
)

// Config holds provider credentials and defaults.
type Config struct {
	Login        string
	Password     string
	BaseURL      string // defaults to the production endpoint
	LocationName string // fallback when a dashboard has no location
	LanguageName string
}

// Client is a rate-limited DataForSEO API client.
type Client struct {
	http      *http.Client
	cfg       Config
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
	batchSize int
	now       func() time.Time
}

// New creates a new DataForSEO client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.LocationName == "" {
		cfg.LocationName = defaultLocation
	}
	if cfg.LanguageName == "" {
		cfg.LanguageName = defaultLanguage
	}
	return &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		cfg:       cfg,
		limiter:   ratelimit.New(defaultRPS, defaultBurst),
		logger:    logger,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
}

// FetchVolumes fetches per-keyword search-volume records for all names.
//
// When shouldFetch is false it returns nil immediately: the caller is
// expected to reuse previously stored data. Otherwise names are split into
// provider-sized batches and fetched with a fixed three-year lookback
// window. A failed or malformed batch contributes zero results and the
// remaining batches still run. nil is returned when no batch produced
// anything.
//
// The only returned error is context cancellation; provider failures do
// not cross this boundary.
func (c *Client) FetchVolumes(ctx context.Context, names []string, locationName string, shouldFetch bool) ([]domain.SearchVolume, error) {
	if !shouldFetch {
		c.logger.Debug("skipping search-volume fetch, stored data is fresh enough")
		return nil, nil
	}
	if locationName == "" {
		locationName = c.cfg.LocationName
	}

	var all []domain.SearchVolume
	for batch := range util.Chunks(names, c.batchSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := c.fetchBatch(ctx, batch, locationName)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("search-volume batch failed, continuing",
				"batch_size", len(batch),
				"error", err,
			)
			continue
		}
		all = append(all, results...)
	}

	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// fetchBatch issues one live search-volume request for up to batchSize names.
func (c *Client) fetchBatch(ctx context.Context, names []string, locationName string) ([]domain.SearchVolume, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	dateFrom := c.now().AddDate(-lookbackYears, 0, 0).Format("2006-01-02")
	payload := []taskRequest{{
		Keywords:             names,
		LocationName:         locationName,
		LanguageName:         c.cfg.LanguageName,
		SearchPartners:       false,
		IncludeAdultKeywords: true,
		SortBy:               "relevance",
		DateFrom:             dateFrom,
	}}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+searchVolumePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+basicAuth(c.cfg.Login, c.cfg.Password))
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("dataforseo request",
		"keywords", len(names),
		"location", locationName,
		"date_from", dateFrom,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed rawResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Tasks == nil {
		return nil, fmt.Errorf("response has no tasks (status %d %s)", parsed.StatusCode, parsed.StatusMessage)
	}

	var results []domain.SearchVolume
	for _, task := range parsed.Tasks {
		results = append(results, task.Result...)
	}
	return results, nil
}

func basicAuth(login, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(login + ":" + password))
}
