// Package geo provides distance and text-relevance math used by location
// search and air quality aggregation.
package geo

import (
	"math"
	"strings"
	"unicode"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distance.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// coordinate pairs.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// ValidCoordinates reports whether lat/lon are within the valid WGS84 range.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Levenshtein returns the edit distance between a and b.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Similarity returns a normalized Levenshtein similarity in [0,1]:
// 1 - editDistance/max(len). Two empty strings are identical.
func Similarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(maxLen)
}

// RelevanceScore scores how well a candidate name matches a query.
// Exact case-insensitive match scores 100, prefix match 90, word-boundary
// substring 80, substring anywhere 70, anything else falls back to fuzzy
// similarity scaled to at most 60.
func RelevanceScore(query, name string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	n := strings.ToLower(strings.TrimSpace(name))

	switch {
	case q == "" || n == "":
		return 0
	case n == q:
		return 100
	case strings.HasPrefix(n, q):
		return 90
	case containsAtWordBoundary(n, q):
		return 80
	case strings.Contains(n, q):
		return 70
	}

	return math.Max(0, Similarity(q, n)*60)
}

// containsAtWordBoundary reports whether substr occurs in s starting at a
// word boundary (the start of the string is handled by the prefix case).
func containsAtWordBoundary(s, substr string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], substr)
		if i < 0 {
			return false
		}
		pos := idx + i
		if pos > 0 {
			before := rune(s[pos-1])
			if unicode.IsSpace(before) || unicode.IsPunct(before) {
				return true
			}
		}
		idx = pos + 1
		if idx >= len(s) {
			return false
		}
	}
}
