// Package api provides the HTTP API for Airscape.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/api/handler"
	"github.com/airscape/airscape/internal/api/middleware"
	"github.com/airscape/airscape/internal/geoloc"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	AirQuality handler.AirQualityProvider
	Searcher   handler.LocationSearcher
	Saved      handler.SavedLocations
	Locator    geoloc.Locator
	Sources    []handler.ConfiguredSource
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "airscape-api"
	}

	// Global middleware, order matters: identify the request before tracing
	// it, trace it before measuring it, measure before logging.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Sources)
	airQualityHandler := handler.NewAirQualityHandler(cfg.AirQuality)
	locationsHandler := handler.NewLocationsHandler(cfg.Searcher, cfg.Saved, cfg.AirQuality, cfg.Locator)

	// The API is anonymous, so every tier keys on client IP. Locate is the
	// strictest because each call hits the IP geolocation provider.
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 120 req/min
	searchRateLimit := middleware.RateLimitByIP(middleware.SearchRateLimit)     // 60 req/min
	locateRateLimit := middleware.RateLimitByIP(middleware.LocateRateLimit)     // 10 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints are unlimited so orchestrators can always probe.
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		r.Route("/air-quality", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/current", airQualityHandler.Current)
			r.Get("/forecast", airQualityHandler.Forecast)
		})

		r.Route("/locations", func(r chi.Router) {
			r.With(searchRateLimit).Get("/search", locationsHandler.Search)
			r.With(searchRateLimit).Get("/reverse-geocode", locationsHandler.ReverseGeocode)
			r.With(locateRateLimit).Get("/locate", locationsHandler.Locate)

			r.Route("/favorites", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", locationsHandler.ListFavorites)
				r.Post("/", locationsHandler.AddFavorite)
				r.Delete("/", locationsHandler.RemoveFavorite)
			})

			r.Route("/recents", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", locationsHandler.ListRecents)
				r.Post("/", locationsHandler.RecordRecent)
			})
		})
	})

	return r
}
