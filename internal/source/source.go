// Package source holds shared helpers for the upstream provider adapters in
// its subpackages. Each adapter normalizes one provider's payloads into the
// canonical airquality types and is independently optional: a missing or
// placeholder credential makes its calls fail with
// airquality.ErrNotConfigured so the caller skips it silently.
package source

import (
	"net/http"
	"strings"
)

// HTTPDoer abstracts HTTP request execution so tests and callers can swap in
// the resilient client or a stub.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// placeholders are credential values that mean "not configured". Dashboards
// commonly ship with these literals in sample env files.
var placeholders = map[string]struct{}{
	"":                  {},
	"demo":              {},
	"changeme":          {},
	"your_api_key_here": {},
	"your_token_here":   {},
}

// KeyConfigured reports whether an API key looks like a real credential.
func KeyConfigured(key string) bool {
	_, placeholder := placeholders[strings.ToLower(strings.TrimSpace(key))]
	return !placeholder
}
