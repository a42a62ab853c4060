// Package resilience provides the HTTP client used for upstream provider
// calls, combining bounded timeouts, exponential-backoff retries, and a
// per-provider circuit breaker.
package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the provider's circuit breaker is open and
// the call was not attempted.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ClientConfig holds configuration for a resilient provider client.
type ClientConfig struct {
	// Name identifies the provider for circuit breaker naming.
	Name string

	// Timeout bounds each individual HTTP attempt (default: 8s).
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the first call
	// (default: 2; adapters rely on the aggregator's source fallback more
	// than on per-call retries).
	MaxRetries uint64

	// InitialInterval is the first retry backoff delay (default: 200ms).
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff delay (default: 2s).
	MaxInterval time.Duration

	// BreakerTimeout is how long the breaker stays open before probing
	// half-open (default: 60s).
	BreakerTimeout time.Duration
}

// Client wraps http.Client with retry and circuit breaker behavior. A zero
// number of healthy responses in a row trips the breaker per readyToTrip.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	cfg        ClientConfig
}

// NewClient creates a resilient client, applying defaults for unset fields.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: readyToTrip,
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		cfg:        cfg,
	}
}

// readyToTrip opens the breaker once at least 5 calls were made and half of
// them failed.
func readyToTrip(counts gobreaker.Counts) bool {
	ratio := float64(counts.TotalFailures) / float64(counts.Requests)
	return counts.Requests >= 5 && ratio >= 0.5
}

// Do executes the request, retrying transient failures (network errors and
// 5xx responses) with exponential backoff. 4xx responses are returned to the
// caller without retry. An open circuit breaker fails fast with
// ErrCircuitOpen.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var lastResp *http.Response

	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // closed by the caller
			r, doErr := c.httpClient.Do(req.Clone(ctx))
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 {
				// Count server errors against the breaker and retry them.
				return r, &serverError{status: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				closeBody(resp)
				lastResp = resp
			}
			return err
		}

		lastResp = resp
		return nil
	}

	if err := backoff.Retry(attempt, policy); err != nil {
		if lastResp != nil {
			// Retries exhausted on a 5xx; hand the last response to the
			// caller so it can report the status. Its body is already
			// drained and closed.
			return lastResp, nil
		}
		return nil, err
	}

	return lastResp, nil
}

// State exposes the breaker state for tests and status reporting.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// closeBody drains and closes a response body that will not reach the
// caller, keeping the underlying connection reusable.
func closeBody(resp *http.Response) {
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
}

type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return "server error: " + http.StatusText(e.status)
}

// IsTimeout reports whether an error from Do was caused by the attempt or
// request deadline expiring.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
