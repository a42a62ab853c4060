package airquality

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/cache"
	"github.com/airscape/airscape/internal/telemetry"
)

// CurrentSource fetches a current air quality reading for a location.
type CurrentSource interface {
	Name() string
	FetchCurrent(ctx context.Context, loc Location) (*Reading, error)
}

// ForecastSource fetches an hourly air quality forecast for a location.
type ForecastSource interface {
	Name() string
	FetchForecast(ctx context.Context, loc Location) (*Forecast, error)
}

// ReverseGeocoder resolves coordinates to a named location.
type ReverseGeocoder interface {
	Name() string
	ReverseGeocode(ctx context.Context, lat, lon float64) (Location, error)
}

// AggregatorConfig holds configuration for the Aggregator.
type AggregatorConfig struct {
	// Sources are tried in priority order for current readings; the first
	// success wins.
	Sources []CurrentSource

	// ForecastSources are tried in priority order for forecasts.
	ForecastSources []ForecastSource

	// Geocoders are tried in priority order for reverse geocoding.
	Geocoders []ReverseGeocoder

	// Generator produces the terminal synthetic fallback (required).
	Generator *Generator

	// Logger for aggregator operations.
	Logger zerolog.Logger

	// Metrics records source attempts and cache lookups. Optional.
	Metrics *telemetry.SourceMetrics

	// ReadingCache and ForecastCache are injected so tests can observe and
	// control them. Defaults are created when nil.
	ReadingCache  *cache.Store[*Reading]
	ForecastCache *cache.Store[*Forecast]

	// SourceTimeout bounds each individual source attempt (default: 8s).
	SourceTimeout time.Duration

	// SyntheticTTL is the shorter cache TTL for synthetic results so a
	// recovered source is picked up quickly (default: 1 minute).
	SyntheticTTL time.Duration
}

// Aggregator resolves air quality data by trying upstream sources in
// priority order, caching whatever it returns, and falling back to the
// synthetic generator when every source fails. Its methods never return an
// error: the caller always receives a usable result.
type Aggregator struct {
	sources         []CurrentSource
	forecastSources []ForecastSource
	geocoders       []ReverseGeocoder
	generator       *Generator
	logger          zerolog.Logger
	metrics         *telemetry.SourceMetrics
	readings        *cache.Store[*Reading]
	forecasts       *cache.Store[*Forecast]
	sourceTimeout   time.Duration
	syntheticTTL    time.Duration
}

// NewAggregator creates an Aggregator, applying defaults for unset fields.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if cfg.Generator == nil {
		cfg.Generator = NewGenerator(GeneratorConfig{})
	}
	if cfg.ReadingCache == nil {
		cfg.ReadingCache = cache.New[*Reading](cache.DefaultAQITTL)
	}
	if cfg.ForecastCache == nil {
		cfg.ForecastCache = cache.New[*Forecast](cache.DefaultAQITTL)
	}
	if cfg.SourceTimeout == 0 {
		cfg.SourceTimeout = 8 * time.Second
	}
	if cfg.SyntheticTTL == 0 {
		cfg.SyntheticTTL = cache.DefaultSyntheticTTL
	}

	return &Aggregator{
		sources:         cfg.Sources,
		forecastSources: cfg.ForecastSources,
		geocoders:       cfg.Geocoders,
		generator:       cfg.Generator,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		readings:        cfg.ReadingCache,
		forecasts:       cfg.ForecastCache,
		sourceTimeout:   cfg.SourceTimeout,
		syntheticTTL:    cfg.SyntheticTTL,
	}
}

// CurrentAQI returns the current reading for a location. Sources are tried
// strictly sequentially; the first success is cached and returned. When all
// sources fail the synthetic generator answers, cached with the shorter
// synthetic TTL.
func (a *Aggregator) CurrentAQI(ctx context.Context, loc Location) *Reading {
	key := "current:" + loc.Fingerprint()

	if cached, ok := a.readings.Get(key); ok {
		a.metrics.RecordCacheLookup(ctx, "readings", true)
		a.logger.Debug().Str("key", key).Msg("reading cache hit")
		return cached
	}
	a.metrics.RecordCacheLookup(ctx, "readings", false)

	for _, src := range a.sources {
		reading, err := a.tryCurrent(ctx, src, loc)
		if err != nil {
			a.logSourceFailure(src.Name(), "current", err)
			continue
		}

		a.readings.Set(key, reading)
		a.logger.Info().
			Str("source", src.Name()).
			Str("city", loc.City).
			Int("aqi", reading.AQI).
			Msg("current reading fetched")
		return reading
	}

	reading := a.generator.Current(loc, time.Now())
	a.readings.SetTTL(key, reading, a.syntheticTTL)
	a.metrics.RecordSynthetic(ctx, "current")
	a.logger.Warn().
		Str("city", loc.City).
		Int("aqi", reading.AQI).
		Msg("all sources failed, serving synthetic reading")
	return reading
}

// ForecastFor returns the hourly forecast for a location, following the same
// fallback ladder as CurrentAQI. The synthetic forecast is derived from the
// location's baseline so it stays consistent with a synthetic current
// reading for the same city and hour.
func (a *Aggregator) ForecastFor(ctx context.Context, loc Location) *Forecast {
	key := "forecast:" + loc.Fingerprint()

	if cached, ok := a.forecasts.Get(key); ok {
		a.metrics.RecordCacheLookup(ctx, "forecasts", true)
		a.logger.Debug().Str("key", key).Msg("forecast cache hit")
		return cached
	}
	a.metrics.RecordCacheLookup(ctx, "forecasts", false)

	for _, src := range a.forecastSources {
		forecast, err := a.tryForecast(ctx, src, loc)
		if err != nil {
			a.logSourceFailure(src.Name(), "forecast", err)
			continue
		}

		a.forecasts.Set(key, forecast)
		a.logger.Info().
			Str("source", src.Name()).
			Str("city", loc.City).
			Int("points", len(forecast.Points)).
			Msg("forecast fetched")
		return forecast
	}

	forecast := a.generator.Forecast(loc, time.Now())
	a.forecasts.SetTTL(key, forecast, a.syntheticTTL)
	a.metrics.RecordSynthetic(ctx, "forecast")
	a.logger.Warn().
		Str("city", loc.City).
		Msg("all forecast sources failed, serving synthetic forecast")
	return forecast
}

// ReverseGeocode resolves coordinates to a Location. Geocoders are tried in
// order; on total failure a placeholder location carrying the exact
// requested coordinates is returned. Reverse geocoding always degrades
// silently.
func (a *Aggregator) ReverseGeocode(ctx context.Context, lat, lon float64) Location {
	for _, gc := range a.geocoders {
		attemptCtx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
		loc, err := gc.ReverseGeocode(attemptCtx, lat, lon)
		cancel()
		if err != nil {
			a.logSourceFailure(gc.Name(), "reverse_geocode", err)
			continue
		}
		// The caller asked about these exact coordinates; a provider may
		// answer with its nearest known place instead.
		loc.Lat = lat
		loc.Lon = lon
		return loc
	}

	return PlaceholderLocation(lat, lon)
}

func (a *Aggregator) tryCurrent(ctx context.Context, src CurrentSource, loc Location) (*Reading, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
	defer cancel()

	start := time.Now()
	reading, err := src.FetchCurrent(attemptCtx, loc)
	a.metrics.RecordRequest(ctx, src.Name(), "current", time.Since(start), err)
	return reading, err
}

func (a *Aggregator) tryForecast(ctx context.Context, src ForecastSource, loc Location) (*Forecast, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
	defer cancel()

	start := time.Now()
	forecast, err := src.FetchForecast(attemptCtx, loc)
	a.metrics.RecordRequest(ctx, src.Name(), "forecast", time.Since(start), err)
	return forecast, err
}

// logSourceFailure logs a failed source attempt. Unconfigured sources are a
// normal condition and only logged at debug level.
func (a *Aggregator) logSourceFailure(source, op string, err error) {
	if errors.Is(err, ErrNotConfigured) {
		a.logger.Debug().
			Str("source", source).
			Str("op", op).
			Msg("source not configured, skipping")
		return
	}
	a.logger.Warn().
		Err(err).
		Str("source", source).
		Str("op", op).
		Msg("source failed, trying next")
}
