package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/api"
	"github.com/airscape/airscape/internal/api/handler"
	"github.com/airscape/airscape/internal/api/models"
	"github.com/airscape/airscape/internal/geoloc"
	"github.com/airscape/airscape/internal/locations"
	"github.com/airscape/airscape/internal/search"
)

type fixedLocator struct {
	coords geoloc.Coordinates
	err    error
}

func (f fixedLocator) Locate(context.Context) (geoloc.Coordinates, error) {
	return f.coords, f.err
}

type namedSource struct {
	name       string
	configured bool
}

func (s namedSource) Name() string     { return s.name }
func (s namedSource) Configured() bool { return s.configured }

// newTestRouter wires real components with zero upstream sources, so air
// quality data comes from the synthetic generator and search from the
// built-in gazetteer.
func newTestRouter() http.Handler {
	logger := zerolog.New(io.Discard)

	aggregator := airquality.NewAggregator(airquality.AggregatorConfig{Logger: logger})
	saved := locations.NewService(locations.ServiceConfig{Logger: logger})
	resolver := search.NewResolver(search.ResolverConfig{
		Geocoder: aggregator,
		Saved:    saved,
		Logger:   logger,
	})

	return api.NewRouter(api.RouterConfig{
		Version:    "test",
		BuildTime:  "2026-01-01T00:00:00Z",
		Logger:     logger,
		AirQuality: aggregator,
		Searcher:   resolver,
		Saved:      saved,
		Locator:    fixedLocator{coords: geoloc.Coordinates{Lat: 52.37, Lon: 4.89}},
		Sources: []handler.ConfiguredSource{
			namedSource{name: "waqi", configured: false},
		},
	})
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck_DegradedWithoutSources(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var readiness models.Readiness
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &readiness))
	assert.Equal(t, models.HealthStatusDegraded, readiness.Status)
	require.Len(t, readiness.Sources, 1)
	assert.Equal(t, "waqi", readiness.Sources[0].Name)
}

func TestRouter_CurrentAQI_SyntheticFallback(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/air-quality/current?lat=52.37&lon=4.89&city=Amsterdam&country=Netherlands", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body models.AirQualityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Estimated)
	assert.GreaterOrEqual(t, body.AQI, 10)
	assert.LessOrEqual(t, body.AQI, 300)
	assert.Equal(t, "Amsterdam", body.Location.City)
}

func TestRouter_Forecast_FullWindow(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/air-quality/forecast?lat=52.37&lon=4.89&city=Amsterdam", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body models.ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Points, airquality.ForecastHours)
	assert.True(t, body.Estimated)
}

func TestRouter_Search_Gazetteer(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/search?q=tokyo", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Results)
	assert.Equal(t, "Tokyo", body.Results[0].Location.City)
	assert.Equal(t, "Japan", body.Results[0].Location.Country)
}

func TestRouter_FavoritesLifecycle(t *testing.T) {
	router := newTestRouter()

	body, _ := json.Marshal(models.SaveLocationRequest{
		City: "Berlin", Country: "Germany", Lat: 52.52, Lon: 13.405,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/locations/favorites", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/locations/favorites", http.NoBody)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var list models.LocationListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Locations, 1)
	assert.Equal(t, "Berlin", list.Locations[0].City)

	req = httptest.NewRequest(http.MethodDelete, "/v1/locations/favorites?lat=52.52&lon=13.405&city=Berlin", http.NoBody)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/locations/favorites", http.NoBody)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Locations)
}

func TestRouter_Locate(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/locate", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var loc models.LocationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loc))
	assert.InDelta(t, 52.37, loc.Lat, 1e-9)
}

func TestRouter_RequestID_Generated(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_ValidationProblem(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/air-quality/current?lat=999&lon=0", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
