// Package handler provides HTTP handlers for the Airscape API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/airscape/airscape/internal/api/models"
	"github.com/airscape/airscape/internal/geo"
)

// maxBodyBytes caps request bodies accepted by write endpoints.
const maxBodyBytes = 1 << 16

// decodeJSON decodes a JSON request body into dst, rejecting oversized
// bodies and trailing garbage.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}

// coordinatesParam parses required lat/lon query parameters, collecting
// field errors for missing, malformed, or out-of-range values.
func coordinatesParam(r *http.Request) (lat, lon float64, errs []models.FieldError) {
	lat, latErrs := floatParam(r, "lat")
	lon, lonErrs := floatParam(r, "lon")
	errs = append(errs, latErrs...)
	errs = append(errs, lonErrs...)
	if len(errs) > 0 {
		return 0, 0, errs
	}

	if !geo.ValidCoordinates(lat, lon) {
		return 0, 0, []models.FieldError{
			{Field: "lat", Message: "coordinates out of range", Code: "out_of_range"},
		}
	}
	return lat, lon, nil
}

func floatParam(r *http.Request, name string) (float64, []models.FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, []models.FieldError{{Field: name, Message: name + " is required", Code: "required"}}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, []models.FieldError{{Field: name, Message: name + " must be a number", Code: "invalid"}}
	}
	return v, nil
}

// boolParam parses an optional boolean query parameter, defaulting to def
// when absent or malformed.
func boolParam(r *http.Request, name string, def bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// intParam parses an optional positive integer query parameter.
func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
