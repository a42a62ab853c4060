package airquality

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"
)

// GeneratorConfig holds the tuning constants for synthetic data. The values
// are arbitrary plausibility knobs, not modelled physics.
type GeneratorConfig struct {
	// BaselineAQI maps a city name to its long-term baseline.
	// Required; typically gazetteer.BaselineAQI.
	BaselineAQI func(city string) int

	// CurrentVariation bounds the random offset applied to current readings.
	// Default: 25.
	CurrentVariation int

	// DiurnalAmplitude is the peak offset of the 24h sinusoid. Default: 15.
	DiurnalAmplitude float64

	// RushHourMin/Max bound the morning and evening traffic bump.
	// Defaults: 12 and 15.
	RushHourMin int
	RushHourMax int

	// WeekendMin/Max bound the weekend reduction. Defaults: 5 and 10.
	WeekendMin int
	WeekendMax int

	// NoiseAmplitude bounds the per-hour random noise. Default: 10.
	NoiseAmplitude int
}

// Generator produces plausible-looking air quality data when no upstream
// source is available. Output is deterministic for a given city and hour, so
// repeated calls within the same hour agree with each other.
type Generator struct {
	cfg GeneratorConfig
}

// NewGenerator creates a Generator, applying defaults for zero-valued knobs.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.BaselineAQI == nil {
		cfg.BaselineAQI = func(string) int { return 80 }
	}
	if cfg.CurrentVariation == 0 {
		cfg.CurrentVariation = 25
	}
	if cfg.DiurnalAmplitude == 0 {
		cfg.DiurnalAmplitude = 15
	}
	if cfg.RushHourMin == 0 {
		cfg.RushHourMin = 12
	}
	if cfg.RushHourMax == 0 {
		cfg.RushHourMax = 15
	}
	if cfg.WeekendMin == 0 {
		cfg.WeekendMin = 5
	}
	if cfg.WeekendMax == 0 {
		cfg.WeekendMax = 10
	}
	if cfg.NoiseAmplitude == 0 {
		cfg.NoiseAmplitude = 10
	}
	return &Generator{cfg: cfg}
}

// rng derives a deterministic random source from the city and hour bucket.
func (g *Generator) rng(city string, now time.Time) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(city)))
	seed := int64(h.Sum64()) + now.Unix()/3600 //nolint:gosec // deterministic seed, not crypto
	return rand.New(rand.NewSource(seed))     //nolint:gosec // plausibility data, not crypto
}

// Current generates a synthetic reading for the location at the given time.
func (g *Generator) Current(loc Location, now time.Time) *Reading {
	rng := g.rng(loc.City, now)

	base := g.cfg.BaselineAQI(loc.City)
	variation := rng.Intn(2*g.cfg.CurrentVariation+1) - g.cfg.CurrentVariation
	aqi := clampSynthetic(base + variation)

	return &Reading{
		AQI:       aqi,
		PM25:      round1(float64(aqi) * 0.5),
		PM10:      round1(float64(aqi) * 0.7),
		O3:        round1(float64(aqi) * 0.4),
		NO2:       round1(float64(aqi) * 0.3),
		SO2:       round1(float64(aqi) * 0.15),
		CO:        round1(float64(aqi) * 0.1),
		Timestamp: now,
		Location:  loc,
		Source:    SourceSynthetic,
	}
}

// Forecast generates ForecastHours hourly points starting at now. Each point
// sums the baseline, a 24h diurnal cycle, rush-hour bumps, a weekend
// reduction, and bounded noise, clamped to the synthetic range.
func (g *Generator) Forecast(loc Location, now time.Time) *Forecast {
	rng := g.rng(loc.City, now)
	base := float64(g.cfg.BaselineAQI(loc.City))

	points := make([]ForecastPoint, 0, ForecastHours)
	for i := 0; i < ForecastHours; i++ {
		ts := now.Add(time.Duration(i) * time.Hour)
		hour := ts.Hour()

		value := base

		// Diurnal cycle peaking in the afternoon.
		value += g.cfg.DiurnalAmplitude * math.Sin(2*math.Pi*float64(hour-8)/24)

		if isRushHour(hour) {
			value += float64(g.cfg.RushHourMin + rng.Intn(g.cfg.RushHourMax-g.cfg.RushHourMin+1))
		}

		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			value -= float64(g.cfg.WeekendMin + rng.Intn(g.cfg.WeekendMax-g.cfg.WeekendMin+1))
		}

		value += float64(rng.Intn(2*g.cfg.NoiseAmplitude+1) - g.cfg.NoiseAmplitude)

		aqi := clampSynthetic(int(math.Round(value)))
		points = append(points, ForecastPoint{
			Timestamp: ts,
			AQI:       aqi,
			PM25:      round1(float64(aqi) * 0.5),
			PM10:      round1(float64(aqi) * 0.7),
		})
	}

	return &Forecast{
		Points:   points,
		Location: loc,
		Source:   SourceSynthetic,
	}
}

// isRushHour reports whether the local hour falls in the 07-09 or 17-19
// traffic windows.
func isRushHour(hour int) bool {
	return (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19)
}

func clampSynthetic(v int) int {
	if v < SyntheticAQIMin {
		return SyntheticAQIMin
	}
	if v > SyntheticAQIMax {
		return SyntheticAQIMax
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
