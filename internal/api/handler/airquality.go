package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/api/models"
	"github.com/airscape/airscape/internal/api/response"
)

// AirQualityProvider is the aggregation surface the handler needs. The
// aggregator guarantees a result for every call, so handlers never map
// upstream failures to error responses.
type AirQualityProvider interface {
	CurrentAQI(ctx context.Context, loc airquality.Location) *airquality.Reading
	ForecastFor(ctx context.Context, loc airquality.Location) *airquality.Forecast
	ReverseGeocode(ctx context.Context, lat, lon float64) airquality.Location
}

// AirQualityHandler serves current readings and forecasts.
type AirQualityHandler struct {
	provider AirQualityProvider
}

// NewAirQualityHandler creates a new AirQualityHandler.
func NewAirQualityHandler(provider AirQualityProvider) *AirQualityHandler {
	return &AirQualityHandler{provider: provider}
}

// Current handles GET /v1/air-quality/current?lat&lon&city&country.
func (h *AirQualityHandler) Current(w http.ResponseWriter, r *http.Request) {
	loc, errs := h.locationParam(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid location", errs)
		return
	}

	reading := h.provider.CurrentAQI(r.Context(), loc)
	response.JSON(w, r, http.StatusOK, models.NewAirQualityResponse(reading))
}

// Forecast handles GET /v1/air-quality/forecast?lat&lon&city&country.
func (h *AirQualityHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	loc, errs := h.locationParam(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid location", errs)
		return
	}

	forecast := h.provider.ForecastFor(r.Context(), loc)
	response.JSON(w, r, http.StatusOK, models.NewForecastResponse(forecast))
}

// locationParam builds the request location. Coordinates are required; a
// missing city name is resolved by reverse geocoding so cache keys and
// synthetic baselines get a usable name.
func (h *AirQualityHandler) locationParam(r *http.Request) (airquality.Location, []models.FieldError) {
	lat, lon, errs := coordinatesParam(r)
	if len(errs) > 0 {
		return airquality.Location{}, errs
	}

	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		return h.provider.ReverseGeocode(r.Context(), lat, lon), nil
	}

	return airquality.Location{
		City:    city,
		Country: strings.TrimSpace(r.URL.Query().Get("country")),
		Lat:     lat,
		Lon:     lon,
	}, nil
}
