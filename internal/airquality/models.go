// Package airquality provides air quality data resolution across multiple
// upstream sources, with caching and synthetic fallback.
package airquality

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Source errors.
var (
	// ErrNotConfigured indicates a source has no usable credentials and must
	// be skipped silently rather than reported.
	ErrNotConfigured = errors.New("source not configured")

	// ErrUpstream indicates the provider answered with a non-success status
	// or a payload that could not be normalized.
	ErrUpstream = errors.New("upstream provider error")
)

// AQI scale bounds on the standardized 0-500 index.
const (
	AQIMin = 0
	AQIMax = 500

	// SyntheticAQIMin and SyntheticAQIMax bound generated values.
	SyntheticAQIMin = 10
	SyntheticAQIMax = 300
)

// SourceSynthetic tags readings produced by the synthetic generator.
const SourceSynthetic = "synthetic"

// Location identifies a place a reading or search result refers to.
// Values are immutable once constructed.
type Location struct {
	City       string  `json:"city"`
	Country    string  `json:"country"`
	State      string  `json:"state,omitempty"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	StationID  string  `json:"stationId,omitempty"`
	HasStation bool    `json:"hasMonitoringStation,omitempty"`
}

// coordEpsilon is the coordinate proximity within which two locations are
// considered the same place (~1.1km at the equator).
const coordEpsilon = 0.01

// SameAs reports whether two locations identify the same place: equal
// case-insensitive (city, country), or coordinates within 0.01 degrees on
// both axes.
func (l Location) SameAs(other Location) bool {
	if l.City != "" && other.City != "" {
		if strings.EqualFold(l.City, other.City) && strings.EqualFold(l.Country, other.Country) {
			return true
		}
	}
	return abs(l.Lat-other.Lat) <= coordEpsilon && abs(l.Lon-other.Lon) <= coordEpsilon
}

// Fingerprint derives a stable cache key component for the location.
// Coordinates are rounded to 3 decimals (~110m) so floating point jitter
// does not fragment the cache.
func (l Location) Fingerprint() string {
	return fmt.Sprintf("%s_%.3f_%.3f", strings.ToLower(l.City), l.Lat, l.Lon)
}

// DisplayName renders a human-readable label for the location.
func (l Location) DisplayName() string {
	parts := make([]string, 0, 3)
	if l.City != "" {
		parts = append(parts, l.City)
	}
	if l.State != "" {
		parts = append(parts, l.State)
	}
	if l.Country != "" {
		parts = append(parts, l.Country)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%.4f, %.4f", l.Lat, l.Lon)
	}
	return strings.Join(parts, ", ")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// PlaceholderLocation builds the degraded-mode location returned when
// reverse geocoding fails: the exact coordinates are preserved and the city
// is a readable coordinate string.
func PlaceholderLocation(lat, lon float64) Location {
	return Location{
		City:    fmt.Sprintf("%.4f, %.4f", lat, lon),
		Country: "Unknown",
		Lat:     lat,
		Lon:     lon,
	}
}

// Reading is a point-in-time air quality measurement for a location.
// Each refresh produces a new Reading; existing values are never mutated.
type Reading struct {
	AQI       int       `json:"aqi"`
	PM25      float64   `json:"pm25"`
	PM10      float64   `json:"pm10"`
	O3        float64   `json:"o3"`
	NO2       float64   `json:"no2"`
	SO2       float64   `json:"so2"`
	CO        float64   `json:"co"`
	Timestamp time.Time `json:"timestamp"`
	Location  Location  `json:"location"`

	// Source identifies which provider produced the reading
	// ("waqi", "openweather", "iqair", or "synthetic").
	Source string `json:"source"`
}

// Synthetic reports whether the reading was generated rather than fetched.
func (r *Reading) Synthetic() bool {
	return r.Source == SourceSynthetic
}

// ForecastPoint is one hourly step of a forecast.
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	AQI       int       `json:"aqi"`
	PM25      float64   `json:"pm25"`
	PM10      float64   `json:"pm10"`
}

// Forecast is an hourly AQI forecast, ordered by time ascending.
type Forecast struct {
	Points   []ForecastPoint `json:"points"`
	Location Location        `json:"location"`
	Source   string          `json:"source"`
}

// Synthetic reports whether the forecast was generated rather than fetched.
func (f *Forecast) Synthetic() bool {
	return f.Source == SourceSynthetic
}

// ForecastHours is the number of hourly points a forecast carries.
const ForecastHours = 48

// categoricalAQI maps the 1-5 categorical scale some providers use onto the
// 0-500 continuous index.
var categoricalAQI = map[int]int{
	1: 25,
	2: 75,
	3: 125,
	4: 175,
	5: 225,
}

// defaultCategoricalAQI is used for out-of-range categorical values.
const defaultCategoricalAQI = 50

// AQIFromCategorical converts a 1-5 categorical air quality index to the
// 0-500 scale via a fixed monotonic lookup. Values outside 1-5 map to 50.
func AQIFromCategorical(category int) int {
	if aqi, ok := categoricalAQI[category]; ok {
		return aqi
	}
	return defaultCategoricalAQI
}

// Category returns the standard descriptive band for an AQI value.
func Category(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// ClampAQI bounds a value to the valid 0-500 index range.
func ClampAQI(v int) int {
	if v < AQIMin {
		return AQIMin
	}
	if v > AQIMax {
		return AQIMax
	}
	return v
}
