package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/api/models"
	"github.com/airscape/airscape/internal/api/response"
	"github.com/airscape/airscape/internal/geoloc"
	"github.com/airscape/airscape/internal/locations"
	"github.com/airscape/airscape/internal/search"
)

// maxQueryLength bounds free-text search input.
const maxQueryLength = 256

// LocationSearcher resolves free-text location queries.
type LocationSearcher interface {
	Search(ctx context.Context, query string, opts search.Options) []search.Result
}

// SavedLocations manages the user's favorites and recents.
type SavedLocations interface {
	Favorites(ctx context.Context) ([]airquality.Location, error)
	Recents(ctx context.Context) ([]airquality.Location, error)
	AddFavorite(ctx context.Context, loc airquality.Location) error
	RemoveFavorite(ctx context.Context, loc airquality.Location) error
	RecordVisit(ctx context.Context, loc airquality.Location)
}

// LocationsHandler serves location search, geocoding, and saved places.
type LocationsHandler struct {
	searcher LocationSearcher
	saved    SavedLocations
	geocoder AirQualityProvider
	locator  geoloc.Locator
}

// NewLocationsHandler creates a new LocationsHandler.
func NewLocationsHandler(searcher LocationSearcher, saved SavedLocations, geocoder AirQualityProvider, locator geoloc.Locator) *LocationsHandler {
	return &LocationsHandler{
		searcher: searcher,
		saved:    saved,
		geocoder: geocoder,
		locator:  locator,
	}
}

// Search handles GET /v1/locations/search?q&lat&lon&stations&coordinates&limit.
func (h *LocationsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) > maxQueryLength {
		response.BadRequest(w, r, "query too long", []models.FieldError{
			{Field: "q", Message: "at most 256 characters", Code: "too_long"},
		})
		return
	}

	opts := search.Options{
		IncludeStations:    boolParam(r, "stations", true),
		IncludeCoordinates: boolParam(r, "coordinates", true),
		MaxResults:         intParam(r, "limit", 0),
	}

	// The caller's position is optional and only affects ranking.
	if lat, lon, errs := coordinatesParam(r); len(errs) == 0 {
		opts.Current = &airquality.Location{Lat: lat, Lon: lon}
	}

	results := h.searcher.Search(r.Context(), query, opts)
	response.JSON(w, r, http.StatusOK, models.NewSearchResponse(strings.TrimSpace(query), results))
}

// ReverseGeocode handles GET /v1/locations/reverse-geocode?lat&lon.
func (h *LocationsHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, lon, errs := coordinatesParam(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid coordinates", errs)
		return
	}

	loc := h.geocoder.ReverseGeocode(r.Context(), lat, lon)
	response.JSON(w, r, http.StatusOK, models.NewLocationDTO(loc))
}

// Locate handles GET /v1/locations/locate, resolving the caller's
// approximate position from their IP and naming it.
func (h *LocationsHandler) Locate(w http.ResponseWriter, r *http.Request) {
	coords, err := h.locator.Locate(r.Context())
	if err != nil {
		if errors.Is(err, geoloc.ErrPermissionDenied) {
			response.Forbidden(w, r, "geolocation was denied")
		} else {
			response.ServiceUnavailable(w, r, "could not determine location")
		}
		return
	}

	loc := h.geocoder.ReverseGeocode(r.Context(), coords.Lat, coords.Lon)
	response.JSON(w, r, http.StatusOK, models.NewLocationDTO(loc))
}

// ListFavorites handles GET /v1/locations/favorites.
func (h *LocationsHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.saved.Favorites(r.Context())
	if err != nil {
		response.InternalError(w, r, "could not load favorites")
		return
	}
	response.JSON(w, r, http.StatusOK, locationList(favorites))
}

// AddFavorite handles POST /v1/locations/favorites.
func (h *LocationsHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSaveLocation(w, r)
	if !ok {
		return
	}

	err := h.saved.AddFavorite(r.Context(), req.Location().Location())
	switch {
	case errors.Is(err, locations.ErrFavoriteLimit):
		response.Conflict(w, r, "favorite limit reached")
	case errors.Is(err, locations.ErrInvalidLocation):
		response.BadRequest(w, r, "invalid location", nil)
	case err != nil:
		response.InternalError(w, r, "could not save favorite")
	default:
		response.Created(w, r, req.Location())
	}
}

// RemoveFavorite handles DELETE /v1/locations/favorites?lat&lon&city.
func (h *LocationsHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	lat, lon, errs := coordinatesParam(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid coordinates", errs)
		return
	}

	loc := airquality.Location{
		City:    strings.TrimSpace(r.URL.Query().Get("city")),
		Country: strings.TrimSpace(r.URL.Query().Get("country")),
		Lat:     lat,
		Lon:     lon,
	}

	err := h.saved.RemoveFavorite(r.Context(), loc)
	switch {
	case errors.Is(err, locations.ErrLocationUnknown):
		response.NotFound(w, r, "location is not a favorite")
	case err != nil:
		response.InternalError(w, r, "could not remove favorite")
	default:
		response.NoContent(w, r)
	}
}

// ListRecents handles GET /v1/locations/recents.
func (h *LocationsHandler) ListRecents(w http.ResponseWriter, r *http.Request) {
	recents, err := h.saved.Recents(r.Context())
	if err != nil {
		response.InternalError(w, r, "could not load recents")
		return
	}
	response.JSON(w, r, http.StatusOK, locationList(recents))
}

// RecordRecent handles POST /v1/locations/recents.
func (h *LocationsHandler) RecordRecent(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSaveLocation(w, r)
	if !ok {
		return
	}

	h.saved.RecordVisit(r.Context(), req.Location().Location())
	response.NoContent(w, r)
}

func decodeSaveLocation(w http.ResponseWriter, r *http.Request) (*models.SaveLocationRequest, bool) {
	var req models.SaveLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return nil, false
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "invalid location", errs)
		return nil, false
	}
	return &req, true
}

func locationList(list []airquality.Location) models.LocationListResponse {
	dtos := make([]models.LocationDTO, 0, len(list))
	for _, loc := range list {
		dtos = append(dtos, models.NewLocationDTO(loc))
	}
	return models.LocationListResponse{Locations: dtos}
}
