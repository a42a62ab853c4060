// Package openweather provides a client for the OpenWeatherMap air pollution
// and geocoding APIs. It is the second-priority current source, the primary
// forecast source, and the primary city geocoder.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/resilience"
	"github.com/airscape/airscape/internal/source"
)

const (
	// ProviderName identifies this source.
	ProviderName = "openweather"

	// DefaultBaseURL is the air pollution API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// DefaultGeoURL is the geocoding API base URL.
	DefaultGeoURL = "https://api.openweathermap.org/geo/1.0"
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key. Empty or placeholder values
	// leave the source unconfigured.
	APIKey string

	// BaseURL overrides the air pollution API base URL (tests).
	BaseURL string

	// GeoURL overrides the geocoding API base URL (tests).
	GeoURL string

	// HTTPClient is the HTTP client to use. Defaults to a resilient client.
	HTTPClient source.HTTPDoer

	// Timeout for individual requests (default: 8s).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	geoURL     string
	httpClient source.HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	geoURL := cfg.GeoURL
	if geoURL == "" {
		geoURL = DefaultGeoURL
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
		geoURL:     strings.TrimSuffix(geoURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// Configured reports whether a usable API key is present.
func (c *Client) Configured() bool { return source.KeyConfigured(c.apiKey) }

// API response types.

type pollutionResponse struct {
	List []pollutionItem `json:"list"`
}

type pollutionItem struct {
	Main struct {
		AQI int `json:"aqi"`
	} `json:"main"`
	Components struct {
		CO   float64 `json:"co"`
		NO2  float64 `json:"no2"`
		O3   float64 `json:"o3"`
		SO2  float64 `json:"so2"`
		PM25 float64 `json:"pm2_5"`
		PM10 float64 `json:"pm10"`
	} `json:"components"`
	DT int64 `json:"dt"`
}

type geoPlace struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

// FetchCurrent retrieves the current air pollution reading. OpenWeatherMap
// reports air quality on a 1-5 categorical scale, which is mapped to the
// 0-500 index via the fixed lookup.
func (c *Client) FetchCurrent(ctx context.Context, loc airquality.Location) (*airquality.Reading, error) {
	if !c.Configured() {
		return nil, airquality.ErrNotConfigured
	}

	u := fmt.Sprintf("%s/air_pollution?lat=%.4f&lon=%.4f&appid=%s",
		c.baseURL, loc.Lat, loc.Lon, url.QueryEscape(c.apiKey))

	var result pollutionResponse
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}

	if len(result.List) == 0 {
		return nil, fmt.Errorf("empty pollution list: %w", airquality.ErrUpstream)
	}

	return c.toReading(&result.List[0], loc), nil
}

// FetchForecast retrieves the hourly air pollution forecast. Upstream
// ordering is not trusted: items are sorted by time ascending, then
// truncated or padded by repeating the last point so the forecast always
// carries exactly ForecastHours entries.
func (c *Client) FetchForecast(ctx context.Context, loc airquality.Location) (*airquality.Forecast, error) {
	if !c.Configured() {
		return nil, airquality.ErrNotConfigured
	}

	u := fmt.Sprintf("%s/air_pollution/forecast?lat=%.4f&lon=%.4f&appid=%s",
		c.baseURL, loc.Lat, loc.Lon, url.QueryEscape(c.apiKey))

	var result pollutionResponse
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}

	if len(result.List) == 0 {
		return nil, fmt.Errorf("empty forecast list: %w", airquality.ErrUpstream)
	}

	sort.Slice(result.List, func(i, j int) bool {
		return result.List[i].DT < result.List[j].DT
	})

	n := len(result.List)
	if n > airquality.ForecastHours {
		n = airquality.ForecastHours
	}

	points := make([]airquality.ForecastPoint, 0, airquality.ForecastHours)
	for i := 0; i < n; i++ {
		item := &result.List[i]
		points = append(points, airquality.ForecastPoint{
			Timestamp: time.Unix(item.DT, 0).UTC(),
			AQI:       airquality.AQIFromCategorical(item.Main.AQI),
			PM25:      item.Components.PM25,
			PM10:      item.Components.PM10,
		})
	}

	for len(points) < airquality.ForecastHours {
		last := points[len(points)-1]
		points = append(points, airquality.ForecastPoint{
			Timestamp: last.Timestamp.Add(time.Hour),
			AQI:       last.AQI,
			PM25:      last.PM25,
			PM10:      last.PM10,
		})
	}

	return &airquality.Forecast{
		Points:   points,
		Location: loc,
		Source:   ProviderName,
	}, nil
}

// SearchCities geocodes a free-text place name into candidate locations.
func (c *Client) SearchCities(ctx context.Context, query string) ([]airquality.Location, error) {
	if !c.Configured() {
		return nil, airquality.ErrNotConfigured
	}

	u := fmt.Sprintf("%s/direct?q=%s&limit=5&appid=%s",
		c.geoURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))

	var places []geoPlace
	if err := c.getJSON(ctx, u, &places); err != nil {
		return nil, err
	}

	locations := make([]airquality.Location, 0, len(places))
	for i := range places {
		loc, ok := toLocation(&places[i])
		if !ok {
			continue
		}
		locations = append(locations, loc)
	}

	return locations, nil
}

// ReverseGeocode resolves coordinates to the nearest named place.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (airquality.Location, error) {
	if !c.Configured() {
		return airquality.Location{}, airquality.ErrNotConfigured
	}

	u := fmt.Sprintf("%s/reverse?lat=%.4f&lon=%.4f&limit=1&appid=%s",
		c.geoURL, lat, lon, url.QueryEscape(c.apiKey))

	var places []geoPlace
	if err := c.getJSON(ctx, u, &places); err != nil {
		return airquality.Location{}, err
	}

	if len(places) == 0 {
		return airquality.Location{}, fmt.Errorf("no reverse geocode match: %w", airquality.ErrUpstream)
	}

	loc, ok := toLocation(&places[0])
	if !ok {
		return airquality.Location{}, fmt.Errorf("unusable reverse geocode match: %w", airquality.ErrUpstream)
	}
	return loc, nil
}

// toReading normalizes a pollution item. Missing pollutant components decode
// to their zero value, which is the documented default.
func (c *Client) toReading(item *pollutionItem, loc airquality.Location) *airquality.Reading {
	ts := time.Unix(item.DT, 0).UTC()
	if item.DT == 0 {
		ts = time.Now()
	}

	return &airquality.Reading{
		AQI:       airquality.AQIFromCategorical(item.Main.AQI),
		PM25:      item.Components.PM25,
		PM10:      item.Components.PM10,
		O3:        item.Components.O3,
		NO2:       item.Components.NO2,
		SO2:       item.Components.SO2,
		CO:        item.Components.CO,
		Timestamp: ts,
		Location:  loc,
		Source:    ProviderName,
	}
}

// toLocation normalizes a geocoding record, dropping entries with unusable
// coordinates and substituting a placeholder for missing names.
func toLocation(p *geoPlace) (airquality.Location, bool) {
	if p.Lat == 0 && p.Lon == 0 {
		return airquality.Location{}, false
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return airquality.Location{}, false
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "Unknown location"
	}

	return airquality.Location{
		City:    name,
		Country: p.Country,
		State:   p.State,
		Lat:     p.Lat,
		Lon:     p.Lon,
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
