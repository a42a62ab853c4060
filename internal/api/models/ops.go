package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Readiness reports whether the service and its dependencies can serve.
type Readiness struct {
	Status  HealthStatus      `json:"status"`
	Time    Timestamp         `json:"time"`
	Sources []SourceReadiness `json:"sources"`
}

// SourceReadiness reports the configuration state of one upstream source.
type SourceReadiness struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}
