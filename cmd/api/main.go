// Package main provides the entrypoint for the Airscape API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/api"
	"github.com/airscape/airscape/internal/api/handler"
	"github.com/airscape/airscape/internal/api/middleware"
	"github.com/airscape/airscape/internal/database"
	"github.com/airscape/airscape/internal/geoloc"
	"github.com/airscape/airscape/internal/locations"
	"github.com/airscape/airscape/internal/resilience"
	"github.com/airscape/airscape/internal/search"
	"github.com/airscape/airscape/internal/source/iqair"
	"github.com/airscape/airscape/internal/source/openweather"
	"github.com/airscape/airscape/internal/source/waqi"
	"github.com/airscape/airscape/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airscape-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Airscape API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	sourceMetrics, err := telemetry.NewSourceMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize source metrics")
		os.Exit(1)
	}

	// Each upstream gets its own breaker so one failing provider cannot
	// blind the others.
	waqiClient := waqi.NewClient(waqi.ClientConfig{
		Token:      os.Getenv("WAQI_TOKEN"),
		HTTPClient: resilience.NewClient(resilience.ClientConfig{Name: waqi.ProviderName}),
		Logger:     log,
	})
	owmClient := openweather.NewClient(openweather.ClientConfig{
		APIKey:     os.Getenv("OPENWEATHER_API_KEY"),
		HTTPClient: resilience.NewClient(resilience.ClientConfig{Name: openweather.ProviderName}),
		Logger:     log,
	})
	iqairClient := iqair.NewClient(iqair.ClientConfig{
		APIKey:     os.Getenv("IQAIR_API_KEY"),
		HTTPClient: resilience.NewClient(resilience.ClientConfig{Name: iqair.ProviderName}),
		Logger:     log,
	})

	aggregator := airquality.NewAggregator(airquality.AggregatorConfig{
		Sources:         []airquality.CurrentSource{waqiClient, owmClient, iqairClient},
		ForecastSources: []airquality.ForecastSource{owmClient},
		Geocoders:       []airquality.ReverseGeocoder{owmClient},
		Logger:          log,
		Metrics:         sourceMetrics,
	})

	// Saved locations live in Postgres when a database is configured and
	// fall back to process memory otherwise.
	var repository locations.Repository
	if os.Getenv("DB_HOST") != "" {
		dbConfig := database.ConfigFromEnv()
		pool, connErr := database.Connect(ctx, dbConfig)
		if connErr != nil {
			log.Fatal().Err(connErr).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
		repository = locations.NewPostgresRepository(pool)
	} else {
		log.Warn().Msg("no database configured, saved locations are in-memory only")
	}

	saved := locations.NewService(locations.ServiceConfig{
		Repository: repository,
		Logger:     log,
	})

	resolver := search.NewResolver(search.ResolverConfig{
		Cities:   owmClient,
		Stations: waqiClient,
		Geocoder: aggregator,
		Saved:    saved,
		Logger:   log,
	})

	locator := geoloc.NewIPLocator(geoloc.IPLocatorConfig{
		HTTPClient: resilience.NewClient(resilience.ClientConfig{Name: "ip-api"}),
		Logger:     log,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		AirQuality:  aggregator,
		Searcher:    resolver,
		Saved:       saved,
		Locator:     locator,
		Sources: []handler.ConfiguredSource{
			waqiClient, owmClient, iqairClient,
		},
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
