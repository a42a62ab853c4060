// Package waqi provides a client for the World Air Quality Index project
// API, the highest-priority source for current readings and the only one
// that searches monitoring stations.
package waqi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/resilience"
	"github.com/airscape/airscape/internal/source"
)

const (
	// ProviderName identifies this source.
	ProviderName = "waqi"

	// DefaultBaseURL is the WAQI API base URL.
	DefaultBaseURL = "https://api.waqi.info"
)

// ClientConfig holds configuration for the WAQI client.
type ClientConfig struct {
	// Token is the WAQI API token. Empty or placeholder values leave the
	// source unconfigured.
	Token string

	// BaseURL overrides the API base URL (tests).
	BaseURL string

	// HTTPClient is the HTTP client to use. Defaults to a resilient client.
	HTTPClient source.HTTPDoer

	// Timeout for individual requests (default: 8s).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a WAQI API client.
type Client struct {
	token      string
	baseURL    string
	httpClient source.HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new WAQI client.
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
		token:      cfg.Token,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// Configured reports whether a usable token is present.
func (c *Client) Configured() bool { return source.KeyConfigured(c.token) }

// API response types.

type feedResponse struct {
	Status string   `json:"status"`
	Data   feedData `json:"data"`
}

type feedData struct {
	AQI  json.Number         `json:"aqi"`
	IAQI map[string]iaqiItem `json:"iaqi"`
	Time feedTime            `json:"time"`
	City feedCity            `json:"city"`
}

type iaqiItem struct {
	V float64 `json:"v"`
}

type feedTime struct {
	ISO string `json:"iso"`
}

type feedCity struct {
	Name string    `json:"name"`
	Geo  []float64 `json:"geo"`
}

type searchResponse struct {
	Status string         `json:"status"`
	Data   []searchResult `json:"data"`
}

type searchResult struct {
	UID     int           `json:"uid"`
	Station searchStation `json:"station"`
}

type searchStation struct {
	Name    string    `json:"name"`
	Geo     []float64 `json:"geo"`
	Country string    `json:"country"`
}

// FetchCurrent retrieves the current reading from the station nearest to the
// location.
func (c *Client) FetchCurrent(ctx context.Context, loc airquality.Location) (*airquality.Reading, error) {
	if !c.Configured() {
		return nil, airquality.ErrNotConfigured
	}

	u := fmt.Sprintf("%s/feed/geo:%.4f;%.4f/?token=%s", c.baseURL, loc.Lat, loc.Lon, url.QueryEscape(c.token))

	var result feedResponse
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}

	if result.Status != "ok" {
		return nil, fmt.Errorf("feed status %q: %w", result.Status, airquality.ErrUpstream)
	}

	aqi, err := result.Data.AQI.Int64()
	if err != nil {
		// The API reports "-" for stations without a current index.
		return nil, fmt.Errorf("non-numeric aqi %q: %w", result.Data.AQI.String(), airquality.ErrUpstream)
	}

	ts, tsErr := time.Parse(time.RFC3339, result.Data.Time.ISO)
	if tsErr != nil {
		ts = time.Now()
	}

	return &airquality.Reading{
		AQI:       airquality.ClampAQI(int(aqi)),
		PM25:      pollutant(result.Data.IAQI, "pm25"),
		PM10:      pollutant(result.Data.IAQI, "pm10"),
		O3:        pollutant(result.Data.IAQI, "o3"),
		NO2:       pollutant(result.Data.IAQI, "no2"),
		SO2:       pollutant(result.Data.IAQI, "so2"),
		CO:        pollutant(result.Data.IAQI, "co"),
		Timestamp: ts,
		Location:  loc,
		Source:    ProviderName,
	}, nil
}

// SearchStations finds monitoring stations matching the query.
func (c *Client) SearchStations(ctx context.Context, query string) ([]airquality.Location, error) {
	if !c.Configured() {
		return nil, airquality.ErrNotConfigured
	}

	u := fmt.Sprintf("%s/search/?token=%s&keyword=%s", c.baseURL, url.QueryEscape(c.token), url.QueryEscape(query))

	var result searchResponse
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}

	if result.Status != "ok" {
		return nil, fmt.Errorf("search status %q: %w", result.Status, airquality.ErrUpstream)
	}

	locations := make([]airquality.Location, 0, len(result.Data))
	for _, r := range result.Data {
		loc, ok := c.toLocation(&r)
		if !ok {
			continue
		}
		locations = append(locations, loc)
	}

	return locations, nil
}

// toLocation normalizes a station record, dropping entries with unusable
// coordinates and substituting a placeholder for missing names.
func (c *Client) toLocation(r *searchResult) (airquality.Location, bool) {
	if len(r.Station.Geo) < 2 {
		return airquality.Location{}, false
	}
	lat, lon := r.Station.Geo[0], r.Station.Geo[1]
	if (lat == 0 && lon == 0) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return airquality.Location{}, false
	}

	name := strings.TrimSpace(r.Station.Name)
	if name == "" {
		name = "Unknown station"
	}
	// Station names are often "City, Region, Country"; the first segment is
	// the most city-like label we have.
	city := name
	if idx := strings.Index(name, ","); idx > 0 {
		city = strings.TrimSpace(name[:idx])
	}

	return airquality.Location{
		City:       city,
		Country:    r.Station.Country,
		Lat:        lat,
		Lon:        lon,
		StationID:  strconv.Itoa(r.UID),
		HasStation: true,
	}, true
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %w", resp.StatusCode, airquality.ErrUpstream)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", airquality.ErrUpstream)
	}

	return nil
}

func pollutant(iaqi map[string]iaqiItem, key string) float64 {
	if item, ok := iaqi[key]; ok && item.V >= 0 {
		return item.V
	}
	return 0
}
