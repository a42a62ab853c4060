package search

import "github.com/airscape/airscape/internal/airquality"

// ResultType classifies where a search result came from, which drives
// tie-breaking between equally scored results.
type ResultType string

const (
	TypeFavorite   ResultType = "favorite"
	TypeRecent     ResultType = "recent"
	TypeStation    ResultType = "station"
	TypeCity       ResultType = "city"
	TypeCoordinate ResultType = "coordinate"
)

// typePriority orders result types for ranking. Saved places outrank live
// lookups, and a raw coordinate is the weakest signal.
var typePriority = map[ResultType]int{
	TypeFavorite:   5,
	TypeRecent:     4,
	TypeStation:    3,
	TypeCity:       2,
	TypeCoordinate: 1,
}

// Priority returns the ranking weight of the type. Unknown types rank last.
func (t ResultType) Priority() int { return typePriority[t] }

// Result is a single ranked search hit.
type Result struct {
	Location airquality.Location `json:"location"`

	// Score is the relevance of the hit to the query, 0-110.
	Score float64 `json:"score"`

	// DistanceKm is the great-circle distance to the caller's current
	// location. Nil when no current location was supplied.
	DistanceKm *float64 `json:"distance_km,omitempty"`

	Type ResultType `json:"type"`
}
