// Package iqair provides a client for the IQAir AirVisual API, the
// last-resort live source for current readings. The nearest_city endpoint
// only reports the US AQI, so pollutant concentrations default to zero.
package iqair

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/resilience"
	"github.com/airscape/airscape/internal/source"
)

const (
	// ProviderName identifies this source.
	ProviderName = "iqair"

	// DefaultBaseURL is the AirVisual API base URL.
	DefaultBaseURL = "https://api.airvisual.com/v2"
)

// ClientConfig holds configuration for the IQAir client.
type ClientConfig struct {
	// APIKey is the AirVisual API key. Empty or placeholder values leave
	// the source unconfigured.
	APIKey string

	// BaseURL overrides the API base URL (tests).
	BaseURL string

	// HTTPClient is the HTTP client to use. Defaults to a resilient client.
	HTTPClient source.HTTPDoer

	// Timeout for individual requests (default: 8s).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an IQAir AirVisual API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient source.HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new IQAir client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:    ProviderName,
			Timeout: cfg.Timeout,
		})
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// Configured reports whether a usable API key is present.
func (c *Client) Configured() bool { return source.KeyConfigured(c.apiKey) }

type nearestCityResponse struct {
	Status string `json:"status"`
	Data   struct {
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
		Current struct {
			Pollution struct {
				TS    string `json:"ts"`
				AQIUS int    `json:"aqius"`
			} `json:"pollution"`
		} `json:"current"`
	} `json:"data"`
}

// FetchCurrent retrieves the reading for the city nearest to the location.
func (c *Client) FetchCurrent(ctx context.Context, loc airquality.Location) (*airquality.Reading, error) {
	if !c.Configured() {
		return nil, airquality.ErrNotConfigured
	}

	u := fmt.Sprintf("%s/nearest_city?lat=%.4f&lon=%.4f&key=%s",
		c.baseURL, loc.Lat, loc.Lon, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, airquality.ErrUpstream)
	}

	var result nearestCityResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", airquality.ErrUpstream)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("nearest_city status %q: %w", result.Status, airquality.ErrUpstream)
	}

	ts, tsErr := time.Parse(time.RFC3339, result.Data.Current.Pollution.TS)
	if tsErr != nil {
		ts = time.Now()
	}

	return &airquality.Reading{
		AQI:       airquality.ClampAQI(result.Data.Current.Pollution.AQIUS),
		Timestamp: ts,
		Location:  loc,
		Source:    ProviderName,
	}, nil
}
