package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/airquality"
)

// Provider is the aggregation surface the warm job drives. Calls never fail;
// a synthetic answer signals that every upstream source was unavailable.
type Provider interface {
	CurrentAQI(ctx context.Context, loc airquality.Location) *airquality.Reading
	ForecastFor(ctx context.Context, loc airquality.Location) *airquality.Forecast
}

// FavoriteSource lists saved locations to include in a warm pass.
type FavoriteSource interface {
	ListFavorites(ctx context.Context) ([]airquality.Location, error)
}

// WarmJob walks the configured locations through the aggregator so client
// requests hit a warm cache.
type WarmJob struct {
	config    WarmConfig
	logger    zerolog.Logger
	provider  Provider
	favorites FavoriteSource
	alerts    AlertSink

	metrics *WarmMetrics
}

// WarmMetrics tracks warm job statistics across runs.
type WarmMetrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	LiveReadings    int64
	Synthetic       int64
	ForecastsWarmed int64
	AlertsPublished int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// WarmJobConfig holds configuration for creating a WarmJob.
type WarmJobConfig struct {
	Config    WarmConfig
	Logger    zerolog.Logger
	Provider  Provider
	Favorites FavoriteSource
	Alerts    AlertSink
}

// NewWarmJob creates a cache warming job.
func NewWarmJob(cfg WarmJobConfig) *WarmJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config.Targets = DefaultWarmTargets()
	}
	// A job warming neither readings nor forecasts is useless, so an unset
	// pair means both.
	if !config.WarmCurrent && !config.WarmForecast {
		config.WarmCurrent = true
		config.WarmForecast = true
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.AlertThreshold <= 0 {
		config.AlertThreshold = DefaultAlertThreshold
	}

	return &WarmJob{
		config:    config,
		logger:    cfg.Logger,
		provider:  cfg.Provider,
		favorites: cfg.Favorites,
		alerts:    cfg.Alerts,
		metrics:   &WarmMetrics{},
	}
}

// WarmResult contains the outcome of one warm pass.
type WarmResult struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalLocations int
	LiveReadings   int
	Synthetic      int
	Forecasts      int
	Alerts         int
}

// Run executes one warm pass over the configured targets plus any saved
// favorites. Favorites are deduplicated against the built-in targets.
func (j *WarmJob) Run(ctx context.Context) *WarmResult {
	startTime := time.Now()
	targets := j.collectTargets(ctx)

	result := &WarmResult{
		StartTime:      startTime,
		TotalLocations: len(targets),
	}

	j.logger.Info().
		Int("locations", len(targets)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache warm pass")

	locCh := make(chan airquality.Location, len(targets))
	resCh := make(chan locationResult, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, locCh, resCh)
		}()
	}

	for _, loc := range targets {
		locCh <- loc
	}
	close(locCh)

	go func() {
		wg.Wait()
		close(resCh)
	}()

	for lr := range resCh {
		if lr.synthetic {
			result.Synthetic++
		} else if lr.warmedCurrent {
			result.LiveReadings++
		}
		if lr.warmedForecast {
			result.Forecasts++
		}
		if lr.alerted {
			result.Alerts++
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("live", result.LiveReadings).
		Int("synthetic", result.Synthetic).
		Int("forecasts", result.Forecasts).
		Msg("cache warm pass completed")

	return result
}

// collectTargets merges configured targets with saved favorites.
func (j *WarmJob) collectTargets(ctx context.Context) []airquality.Location {
	targets := make([]airquality.Location, len(j.config.Targets))
	copy(targets, j.config.Targets)

	if j.favorites == nil {
		return targets
	}

	favorites, err := j.favorites.ListFavorites(ctx)
	if err != nil {
		j.logger.Warn().Err(err).Msg("loading favorites for warm pass failed")
		return targets
	}

outer:
	for _, fav := range favorites {
		for _, existing := range targets {
			if existing.SameAs(fav) {
				continue outer
			}
		}
		targets = append(targets, fav)
	}

	return targets
}

type locationResult struct {
	warmedCurrent  bool
	warmedForecast bool
	synthetic      bool
	alerted        bool
}

func (j *WarmJob) warmWorker(ctx context.Context, locations <-chan airquality.Location, results chan<- locationResult) {
	for loc := range locations {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.warmLocation(ctx, loc)
		}
	}
}

func (j *WarmJob) warmLocation(ctx context.Context, loc airquality.Location) locationResult {
	locCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	var result locationResult

	if j.config.WarmCurrent {
		reading := j.provider.CurrentAQI(locCtx, loc)
		result.warmedCurrent = true
		result.synthetic = reading.Synthetic()
		result.alerted = j.maybeAlert(locCtx, reading)
	}

	if j.config.WarmForecast {
		j.provider.ForecastFor(locCtx, loc)
		result.warmedForecast = true
	}

	return result
}

// maybeAlert publishes a threshold alert for a live reading. Synthetic
// readings never alert; an estimate is not evidence of bad air.
func (j *WarmJob) maybeAlert(ctx context.Context, reading *airquality.Reading) bool {
	if j.alerts == nil || reading.Synthetic() || reading.AQI < j.config.AlertThreshold {
		return false
	}

	if err := j.alerts.Publish(ctx, reading); err != nil {
		j.logger.Error().
			Err(err).
			Str("city", reading.Location.City).
			Int("aqi", reading.AQI).
			Msg("publishing alert failed")
		return false
	}
	return true
}

func (j *WarmJob) updateMetrics(result *WarmResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.LiveReadings += int64(result.LiveReadings)
	j.metrics.Synthetic += int64(result.Synthetic)
	j.metrics.ForecastsWarmed += int64(result.Forecasts)
	j.metrics.AlertsPublished += int64(result.Alerts)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmJob) GetMetrics() WarmMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return WarmMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		LiveReadings:    j.metrics.LiveReadings,
		Synthetic:       j.metrics.Synthetic,
		ForecastsWarmed: j.metrics.ForecastsWarmed,
		AlertsPublished: j.metrics.AlertsPublished,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}
