package handler

import (
	"net/http"
	"time"

	"github.com/airscape/airscape/internal/api/models"
	"github.com/airscape/airscape/internal/api/response"
)

// ConfiguredSource reports whether an upstream data source has credentials.
type ConfiguredSource interface {
	Name() string
	Configured() bool
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	sources   []ConfiguredSource
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, sources []ConfiguredSource) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		sources:   sources,
	}
}

// HealthCheck handles GET /v1/ops/health, the liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. The service stays ready with
// zero configured sources because the aggregator falls back to estimates,
// but that state is reported as DEGRADED.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	readiness := models.Readiness{
		Status:  models.HealthStatusOK,
		Time:    models.Timestamp(time.Now()),
		Sources: make([]models.SourceReadiness, 0, len(h.sources)),
	}

	configured := 0
	for _, src := range h.sources {
		ok := src.Configured()
		if ok {
			configured++
		}
		readiness.Sources = append(readiness.Sources, models.SourceReadiness{
			Name:       src.Name(),
			Configured: ok,
		})
	}
	if configured == 0 {
		readiness.Status = models.HealthStatusDegraded
	}

	response.JSON(w, r, http.StatusOK, readiness)
}
