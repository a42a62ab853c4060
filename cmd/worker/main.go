// Package main provides the entrypoint for the Airscape cache warm worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/database"
	"github.com/airscape/airscape/internal/locations"
	"github.com/airscape/airscape/internal/resilience"
	"github.com/airscape/airscape/internal/source/iqair"
	"github.com/airscape/airscape/internal/source/openweather"
	"github.com/airscape/airscape/internal/source/waqi"
	"github.com/airscape/airscape/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airscape-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Airscape worker")

	// The worker also exposes a health endpoint for Cloud Run.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	})

	// Favorites are warmed too when the shared database is reachable.
	var favorites worker.FavoriteSource
	if os.Getenv("DB_HOST") != "" {
		pool, err := database.Connect(ctx, database.ConfigFromEnv())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		favorites = locations.NewPostgresRepository(pool)
		log.Info().Msg("database connected, warming saved favorites")
	}

	// Threshold alerts are published when an alert topic is configured.
	var alerts worker.AlertSink
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	if topic := os.Getenv("PUBSUB_ALERT_TOPIC"); topic != "" && projectID != "" {
		publisher, err := worker.NewAlertPublisher(ctx, worker.AlertPublisherConfig{
			ProjectID: projectID,
			TopicName: topic,
			Logger:    log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create alert publisher")
		}
		defer publisher.Close()
		alerts = publisher
		log.Info().Str("topic", topic).Msg("alert publishing enabled")
	}

	warmConfig := worker.DefaultWarmConfig()
	if raw := os.Getenv("ALERT_AQI_THRESHOLD"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			warmConfig.AlertThreshold = parsed
		}
	}

	warmJob := worker.NewWarmJob(worker.WarmJobConfig{
		Config:    warmConfig,
		Logger:    log,
		Provider:  aggregator,
		Favorites: favorites,
		Alerts:    alerts,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// With a Pub/Sub subscription configured the worker runs on demand;
	// otherwise it warms on a fixed interval.
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")

	if projectID != "" && subscription != "" {
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			WarmJob:          warmJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer pubsubHandler.Close()

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Fatal().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Warn().Msg("no pubsub subscription configured, warming on a fixed interval")

		interval := 10 * time.Minute
		if raw := os.Getenv("WARM_INTERVAL"); raw != "" {
			if parsed, err := time.ParseDuration(raw); err == nil {
				interval = parsed
			}
		}

		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			warmJob.Run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					warmJob.Run(ctx)
				}
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
