package geo

import (
	"math"
	"testing"
)

func TestHaversine_KnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: 52.3676, lon1: 4.9041,
			lat2: 52.3676, lon2: 4.9041,
			wantKm: 0, tolerance: 0.001,
		},
		{
			name: "Amsterdam to Rotterdam",
			lat1: 52.3676, lon1: 4.9041,
			lat2: 51.9244, lon2: 4.4777,
			wantKm: 57.2, tolerance: 2,
		},
		{
			name: "New York to London",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 51.5074, lon2: -0.1278,
			wantKm: 5570, tolerance: 20,
		},
		{
			name: "across the antimeridian",
			lat1: 0, lon1: 179.5,
			lat2: 0, lon2: -179.5,
			wantKm: 111.2, tolerance: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("Haversine() = %.2f km, want %.2f ± %.2f", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.1, 0, false},
		{0, 180.1, false},
		{-91, 0, false},
	}

	for _, tt := range tests {
		if got := ValidCoordinates(tt.lat, tt.lon); got != tt.want {
			t.Errorf("ValidCoordinates(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"tokyo", "tokyo", 0},
		{"kitten", "sitting", 3},
		{"london", "londin", 1},
		{"paris", "pari", 1},
	}

	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("tokyo", "tokyo"); got != 1 {
		t.Errorf("identical strings: got %v, want 1", got)
	}
	if got := Similarity("", ""); got != 1 {
		t.Errorf("empty strings: got %v, want 1", got)
	}
	// "abcd" vs "abce": distance 1, max len 4 -> 0.75
	if got := Similarity("abcd", "abce"); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("got %v, want 0.75", got)
	}
}

func TestRelevanceScore_Tiers(t *testing.T) {
	tests := []struct {
		name  string
		query string
		city  string
		want  float64
	}{
		{"exact match", "tokyo", "Tokyo", 100},
		{"exact match case-insensitive", "TOKYO", "tokyo", 100},
		{"prefix match", "tok", "Tokyo", 90},
		{"word boundary", "york", "New York", 80},
		{"substring anywhere", "okyo", "Tokyo", 70},
		{"empty query", "", "Tokyo", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelevanceScore(tt.query, tt.city); got != tt.want {
				t.Errorf("RelevanceScore(%q, %q) = %v, want %v", tt.query, tt.city, got, tt.want)
			}
		})
	}
}

func TestRelevanceScore_FuzzyFallback(t *testing.T) {
	// "tokio" vs "tokyo": no substring relation, similarity 0.8 -> 48.
	got := RelevanceScore("tokio", "Tokyo")
	if math.Abs(got-48) > 1e-9 {
		t.Errorf("fuzzy score = %v, want 48", got)
	}

	// Completely unrelated strings stay non-negative.
	if got := RelevanceScore("xyzzy", "Tokyo"); got < 0 {
		t.Errorf("score must not be negative, got %v", got)
	}
}
