// Package geoloc resolves the caller's approximate position. The interface
// mirrors device geolocation: callers get coordinates or one of three typed
// failures, and bound the wait with the context deadline.
package geoloc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/geo"
	"github.com/airscape/airscape/internal/resilience"
	"github.com/airscape/airscape/internal/source"
)

// Typed locator failures.
var (
	ErrPermissionDenied = errors.New("geolocation permission denied")
	ErrUnavailable      = errors.New("geolocation unavailable")
	ErrTimeout          = errors.New("geolocation timed out")
)

// Coordinates is a resolved position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Locator resolves the caller's position.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// DefaultEndpoint is the IP geolocation service queried by IPLocator.
const DefaultEndpoint = "http://ip-api.com/json"

// IPLocatorConfig holds configuration for the IP-based locator.
type IPLocatorConfig struct {
	// Endpoint overrides the geolocation service URL (tests).
	Endpoint string

	// HTTPClient is the HTTP client to use. Defaults to a resilient client.
	HTTPClient source.HTTPDoer

	// Timeout for individual requests (default: 5s).
	Timeout time.Duration

	// Logger for locator operations.
	Logger zerolog.Logger
}

// IPLocator resolves approximate coordinates from the caller's public IP.
// Accuracy is city-level at best, which is all the dashboard needs for a
// default location.
type IPLocator struct {
	endpoint   string
	httpClient source.HTTPDoer
	logger     zerolog.Logger
}

// NewIPLocator creates a new IP-based locator.
func NewIPLocator(cfg IPLocatorConfig) *IPLocator {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:    "geoloc",
			Timeout: timeout,
		})
	}

	return &IPLocator{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Locate resolves the caller's position. Failures map onto the typed errors
// so callers can distinguish "denied" from "try again later".
func (l *IPLocator) Locate(ctx context.Context) (Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, http.NoBody)
	if err != nil {
		return Coordinates{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if resilience.IsTimeout(err) {
			return Coordinates{}, ErrTimeout
		}
		return Coordinates{}, fmt.Errorf("geolocation request: %w", ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return Coordinates{}, ErrPermissionDenied
	case resp.StatusCode != http.StatusOK:
		return Coordinates{}, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Coordinates{}, fmt.Errorf("decode response: %w", ErrUnavailable)
	}

	if result.Status != "success" {
		return Coordinates{}, fmt.Errorf("lookup failed %q: %w", result.Message, ErrUnavailable)
	}
	if (result.Lat == 0 && result.Lon == 0) || !geo.ValidCoordinates(result.Lat, result.Lon) {
		return Coordinates{}, fmt.Errorf("unusable coordinates: %w", ErrUnavailable)
	}

	return Coordinates{Lat: result.Lat, Lon: result.Lon}, nil
}
