// Package gazetteer provides the built-in list of known cities used as an
// offline fallback for location search and as the source of per-city
// baseline AQI values for synthetic data generation.
package gazetteer

import (
	"sort"
	"strings"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/geo"
)

// DefaultBaselineAQI is used for cities without a hand-tuned baseline.
const DefaultBaselineAQI = 80

// City is one gazetteer entry.
type City struct {
	Name       string
	Country    string
	State      string
	Lat        float64
	Lon        float64
	Baseline   int
	HasStation bool
}

// Location converts the entry to a domain Location.
func (c City) Location() airquality.Location {
	return airquality.Location{
		City:       c.Name,
		Country:    c.Country,
		State:      c.State,
		Lat:        c.Lat,
		Lon:        c.Lon,
		HasStation: c.HasStation,
	}
}

// cities is the embedded data set. Baselines are rough long-term averages,
// tuned for plausibility rather than accuracy.
var cities = []City{
	{Name: "Tokyo", Country: "Japan", Lat: 35.6762, Lon: 139.6503, Baseline: 65, HasStation: true},
	{Name: "Delhi", Country: "India", Lat: 28.7041, Lon: 77.1025, Baseline: 185, HasStation: true},
	{Name: "Shanghai", Country: "China", Lat: 31.2304, Lon: 121.4737, Baseline: 120, HasStation: true},
	{Name: "Beijing", Country: "China", Lat: 39.9042, Lon: 116.4074, Baseline: 135, HasStation: true},
	{Name: "Mumbai", Country: "India", Lat: 19.0760, Lon: 72.8777, Baseline: 155, HasStation: true},
	{Name: "São Paulo", Country: "Brazil", Lat: -23.5505, Lon: -46.6333, Baseline: 75, HasStation: true},
	{Name: "Mexico City", Country: "Mexico", Lat: 19.4326, Lon: -99.1332, Baseline: 110, HasStation: true},
	{Name: "Cairo", Country: "Egypt", Lat: 30.0444, Lon: 31.2357, Baseline: 145, HasStation: true},
	{Name: "Dhaka", Country: "Bangladesh", Lat: 23.8103, Lon: 90.4125, Baseline: 175, HasStation: true},
	{Name: "New York", Country: "United States", State: "New York", Lat: 40.7128, Lon: -74.0060, Baseline: 55, HasStation: true},
	{Name: "Los Angeles", Country: "United States", State: "California", Lat: 34.0522, Lon: -118.2437, Baseline: 85, HasStation: true},
	{Name: "Chicago", Country: "United States", State: "Illinois", Lat: 41.8781, Lon: -87.6298, Baseline: 60, HasStation: true},
	{Name: "London", Country: "United Kingdom", Lat: 51.5074, Lon: -0.1278, Baseline: 60, HasStation: true},
	{Name: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522, Baseline: 65, HasStation: true},
	{Name: "Berlin", Country: "Germany", Lat: 52.5200, Lon: 13.4050, Baseline: 50, HasStation: true},
	{Name: "Madrid", Country: "Spain", Lat: 40.4168, Lon: -3.7038, Baseline: 60, HasStation: true},
	{Name: "Amsterdam", Country: "Netherlands", Lat: 52.3676, Lon: 4.9041, Baseline: 45, HasStation: true},
	{Name: "Moscow", Country: "Russia", Lat: 55.7558, Lon: 37.6173, Baseline: 70, HasStation: true},
	{Name: "Istanbul", Country: "Turkey", Lat: 41.0082, Lon: 28.9784, Baseline: 90, HasStation: true},
	{Name: "Karachi", Country: "Pakistan", Lat: 24.8607, Lon: 67.0011, Baseline: 165, HasStation: true},
	{Name: "Lahore", Country: "Pakistan", Lat: 31.5204, Lon: 74.3587, Baseline: 190, HasStation: true},
	{Name: "Bangkok", Country: "Thailand", Lat: 13.7563, Lon: 100.5018, Baseline: 105, HasStation: true},
	{Name: "Jakarta", Country: "Indonesia", Lat: -6.2088, Lon: 106.8456, Baseline: 130, HasStation: true},
	{Name: "Manila", Country: "Philippines", Lat: 14.5995, Lon: 120.9842, Baseline: 95, HasStation: true},
	{Name: "Seoul", Country: "South Korea", Lat: 37.5665, Lon: 126.9780, Baseline: 85, HasStation: true},
	{Name: "Singapore", Country: "Singapore", Lat: 1.3521, Lon: 103.8198, Baseline: 55, HasStation: true},
	{Name: "Hong Kong", Country: "China", Lat: 22.3193, Lon: 114.1694, Baseline: 90, HasStation: true},
	{Name: "Sydney", Country: "Australia", Lat: -33.8688, Lon: 151.2093, Baseline: 40, HasStation: true},
	{Name: "Melbourne", Country: "Australia", Lat: -37.8136, Lon: 144.9631, Baseline: 40, HasStation: true},
	{Name: "Toronto", Country: "Canada", State: "Ontario", Lat: 43.6532, Lon: -79.3832, Baseline: 45, HasStation: true},
	{Name: "Vancouver", Country: "Canada", State: "British Columbia", Lat: 49.2827, Lon: -123.1207, Baseline: 35, HasStation: true},
	{Name: "San Francisco", Country: "United States", State: "California", Lat: 37.7749, Lon: -122.4194, Baseline: 50, HasStation: true},
	{Name: "Seattle", Country: "United States", State: "Washington", Lat: 47.6062, Lon: -122.3321, Baseline: 40, HasStation: true},
	{Name: "Houston", Country: "United States", State: "Texas", Lat: 29.7604, Lon: -95.3698, Baseline: 70, HasStation: true},
	{Name: "Miami", Country: "United States", State: "Florida", Lat: 25.7617, Lon: -80.1918, Baseline: 45, HasStation: true},
	{Name: "Buenos Aires", Country: "Argentina", Lat: -34.6037, Lon: -58.3816, Baseline: 65, HasStation: true},
	{Name: "Santiago", Country: "Chile", Lat: -33.4489, Lon: -70.6693, Baseline: 100, HasStation: true},
	{Name: "Bogotá", Country: "Colombia", Lat: 4.7110, Lon: -74.0721, Baseline: 85, HasStation: true},
	{Name: "Lima", Country: "Peru", Lat: -12.0464, Lon: -77.0428, Baseline: 95, HasStation: true},
	{Name: "Lagos", Country: "Nigeria", Lat: 6.5244, Lon: 3.3792, Baseline: 125, HasStation: false},
	{Name: "Nairobi", Country: "Kenya", Lat: -1.2921, Lon: 36.8219, Baseline: 90, HasStation: false},
	{Name: "Johannesburg", Country: "South Africa", Lat: -26.2041, Lon: 28.0473, Baseline: 85, HasStation: true},
	{Name: "Dubai", Country: "United Arab Emirates", Lat: 25.2048, Lon: 55.2708, Baseline: 110, HasStation: true},
	{Name: "Riyadh", Country: "Saudi Arabia", Lat: 24.7136, Lon: 46.6753, Baseline: 130, HasStation: true},
	{Name: "Tehran", Country: "Iran", Lat: 35.6892, Lon: 51.3890, Baseline: 140, HasStation: true},
	{Name: "Rome", Country: "Italy", Lat: 41.9028, Lon: 12.4964, Baseline: 65, HasStation: true},
	{Name: "Vienna", Country: "Austria", Lat: 48.2082, Lon: 16.3738, Baseline: 45, HasStation: true},
	{Name: "Warsaw", Country: "Poland", Lat: 52.2297, Lon: 21.0122, Baseline: 75, HasStation: true},
	{Name: "Stockholm", Country: "Sweden", Lat: 59.3293, Lon: 18.0686, Baseline: 30, HasStation: true},
	{Name: "Oslo", Country: "Norway", Lat: 59.9139, Lon: 10.7522, Baseline: 30, HasStation: true},
	{Name: "Helsinki", Country: "Finland", Lat: 60.1699, Lon: 24.9384, Baseline: 28, HasStation: true},
	{Name: "Zurich", Country: "Switzerland", Lat: 47.3769, Lon: 8.5417, Baseline: 35, HasStation: true},
	{Name: "Reykjavik", Country: "Iceland", Lat: 64.1466, Lon: -21.9426, Baseline: 20, HasStation: false},
	{Name: "Wellington", Country: "New Zealand", Lat: -41.2866, Lon: 174.7756, Baseline: 25, HasStation: false},
	{Name: "Ho Chi Minh City", Country: "Vietnam", Lat: 10.8231, Lon: 106.6297, Baseline: 115, HasStation: true},
	{Name: "Hanoi", Country: "Vietnam", Lat: 21.0278, Lon: 105.8342, Baseline: 150, HasStation: true},
	{Name: "Kathmandu", Country: "Nepal", Lat: 27.7172, Lon: 85.3240, Baseline: 160, HasStation: true},
	{Name: "Ulaanbaatar", Country: "Mongolia", Lat: 47.8864, Lon: 106.9057, Baseline: 170, HasStation: true},
	{Name: "Krakow", Country: "Poland", Lat: 50.0647, Lon: 19.9450, Baseline: 95, HasStation: true},
	{Name: "Sofia", Country: "Bulgaria", Lat: 42.6977, Lon: 23.3219, Baseline: 85, HasStation: true},
}

// All returns every gazetteer entry.
func All() []City {
	out := make([]City, len(cities))
	copy(out, cities)
	return out
}

// Lookup finds a city by exact case-insensitive name.
func Lookup(name string) (City, bool) {
	for _, c := range cities {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return City{}, false
}

// BaselineAQI returns the hand-tuned baseline for a known city, or
// DefaultBaselineAQI for anything else.
func BaselineAQI(city string) int {
	if c, ok := Lookup(city); ok {
		return c.Baseline
	}
	return DefaultBaselineAQI
}

// scored pairs a city with its relevance for sorting.
type scored struct {
	city  City
	score float64
}

// Search returns gazetteer entries relevant to the query, best first.
// Entries scoring below the cutoff are omitted; an empty query matches
// nothing.
func Search(query string, limit int) []City {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	const cutoff = 40.0

	matches := make([]scored, 0, 8)
	for _, c := range cities {
		score := geo.RelevanceScore(q, c.Name)
		if score >= cutoff {
			matches = append(matches, scored{city: c, score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].city.Name < matches[j].city.Name
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]City, len(matches))
	for i, m := range matches {
		out[i] = m.city
	}
	return out
}
