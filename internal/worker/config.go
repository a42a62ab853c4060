// Package worker provides background cache warming for Airscape.
package worker

import (
	"time"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/gazetteer"
)

// WarmConfig holds configuration for the cache warming job.
type WarmConfig struct {
	// Targets are the locations to warm. If empty, DefaultWarmTargets is
	// used. Saved favorites are appended at run time when a repository is
	// configured.
	Targets []airquality.Location

	// Concurrency is the number of locations warmed in parallel.
	// Default: 3
	Concurrency int

	// Timeout bounds the work for a single location.
	// Default: 30 seconds
	Timeout time.Duration

	// WarmCurrent enables warming current readings. Default: true.
	WarmCurrent bool

	// WarmForecast enables warming hourly forecasts. Default: true.
	WarmForecast bool

	// AlertThreshold is the AQI level at which a live reading triggers an
	// alert, when an alert sink is configured.
	// Default: DefaultAlertThreshold
	AlertThreshold int
}

// DefaultWarmConfig returns the default warm configuration.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		Targets:        DefaultWarmTargets(),
		Concurrency:    3,
		Timeout:        30 * time.Second,
		WarmCurrent:    true,
		WarmForecast:   true,
		AlertThreshold: DefaultAlertThreshold,
	}
}

// defaultTargetCount bounds the built-in target list so a full warm pass
// stays within upstream rate limits.
const defaultTargetCount = 20

// DefaultWarmTargets returns the busiest gazetteer cities. They are the
// locations most likely to be requested by a cold client.
func DefaultWarmTargets() []airquality.Location {
	cities := gazetteer.All()
	if len(cities) > defaultTargetCount {
		cities = cities[:defaultTargetCount]
	}

	targets := make([]airquality.Location, 0, len(cities))
	for _, city := range cities {
		targets = append(targets, city.Location())
	}
	return targets
}
