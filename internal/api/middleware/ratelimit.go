package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/airscape/airscape/internal/api/models"
)

// RateLimitConfig holds a request budget per window.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Rate limit tiers. The API is anonymous, so every tier keys on client IP.
var (
	// StandardRateLimit covers cached reads (120 req/min).
	StandardRateLimit = RateLimitConfig{
		RequestLimit: 120,
		WindowLength: time.Minute,
	}

	// SearchRateLimit covers the search fan-out, which hits several
	// upstream APIs per miss (60 req/min).
	SearchRateLimit = RateLimitConfig{
		RequestLimit: 60,
		WindowLength: time.Minute,
	}

	// LocateRateLimit covers IP geolocation, whose upstream enforces its
	// own quota (10 req/min).
	LocateRateLimit = RateLimitConfig{
		RequestLimit: 10,
		WindowLength: time.Minute,
	}
)

// RateLimitByIP creates a rate limiter keyed on the client IP, which chi's
// RealIP middleware resolves from X-Forwarded-For.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(rateLimitExceededHandler),
	)
}

// rateLimitExceededHandler writes an RFC7807 problem when the limit is hit.
func rateLimitExceededHandler(w http.ResponseWriter, r *http.Request) {
	problem := models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.")
	problem.Instance = r.URL.Path

	// httprate does not expose the exact reset time, so advertise the
	// full window.
	w.Header().Set("Retry-After", strconv.Itoa(60))

	problem.Write(w)
}
