package models

import (
	"github.com/airscape/airscape/internal/geo"
	"github.com/airscape/airscape/internal/search"
)

// SearchResultDTO is one ranked search hit.
type SearchResultDTO struct {
	Location   LocationDTO `json:"location"`
	Score      float64     `json:"score"`
	DistanceKm *float64    `json:"distanceKm,omitempty"`
	Type       string      `json:"type"`
}

// SearchResponse is the wire representation of a location search.
type SearchResponse struct {
	Query   string            `json:"query"`
	Results []SearchResultDTO `json:"results"`
}

// NewSearchResponse converts ranked resolver results.
func NewSearchResponse(query string, results []search.Result) SearchResponse {
	dtos := make([]SearchResultDTO, 0, len(results))
	for _, res := range results {
		dtos = append(dtos, SearchResultDTO{
			Location:   NewLocationDTO(res.Location),
			Score:      res.Score,
			DistanceKm: res.DistanceKm,
			Type:       string(res.Type),
		})
	}
	return SearchResponse{Query: query, Results: dtos}
}

// LocationListResponse wraps a list of saved locations.
type LocationListResponse struct {
	Locations []LocationDTO `json:"locations"`
}

// SaveLocationRequest is the body for adding a favorite or recording a
// recently viewed location.
type SaveLocationRequest struct {
	City       string  `json:"city"`
	Country    string  `json:"country"`
	State      string  `json:"state"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	StationID  string  `json:"stationId"`
	HasStation bool    `json:"hasStation"`
}

// Validate returns field errors for an unusable request.
func (r *SaveLocationRequest) Validate() []FieldError {
	var errs []FieldError
	if r.City == "" {
		errs = append(errs, FieldError{Field: "city", Message: "city is required", Code: "required"})
	}
	if r.Lat == 0 && r.Lon == 0 {
		errs = append(errs, FieldError{Field: "lat", Message: "coordinates are required", Code: "required"})
	} else if !geo.ValidCoordinates(r.Lat, r.Lon) {
		errs = append(errs, FieldError{Field: "lat", Message: "coordinates out of range", Code: "out_of_range"})
	}
	return errs
}

// Location converts the request to the domain type.
func (r *SaveLocationRequest) Location() LocationDTO {
	return LocationDTO{
		City:       r.City,
		Country:    r.Country,
		State:      r.State,
		Lat:        r.Lat,
		Lon:        r.Lon,
		StationID:  r.StationID,
		HasStation: r.HasStation,
	}
}
