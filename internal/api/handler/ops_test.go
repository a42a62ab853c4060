package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airscape/airscape/internal/api/handler"
	"github.com/airscape/airscape/internal/api/models"
)

type stubSource struct {
	name       string
	configured bool
}

func (s stubSource) Name() string     { return s.name }
func (s stubSource) Configured() bool { return s.configured }

func TestOps_HealthCheck(t *testing.T) {
	h := handler.NewOpsHandler("1.2.3", "2026-08-28T00:00:00Z", nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()
	h.HealthCheck(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.HealthStatusOK, body.Status)
	assert.Equal(t, "1.2.3", body.Details["version"])
}

func TestOps_ReadinessCheck(t *testing.T) {
	h := handler.NewOpsHandler("1.2.3", "", []handler.ConfiguredSource{
		stubSource{name: "waqi", configured: true},
		stubSource{name: "openweather", configured: false},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()
	h.ReadinessCheck(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body models.Readiness
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.HealthStatusOK, body.Status)
	require.Len(t, body.Sources, 2)
	assert.Equal(t, "waqi", body.Sources[0].Name)
	assert.True(t, body.Sources[0].Configured)
	assert.False(t, body.Sources[1].Configured)
}

func TestOps_ReadinessCheck_NoSourcesDegraded(t *testing.T) {
	h := handler.NewOpsHandler("1.2.3", "", []handler.ConfiguredSource{
		stubSource{name: "waqi", configured: false},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()
	h.ReadinessCheck(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body models.Readiness
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.HealthStatusDegraded, body.Status)
}
