package airquality_test

import (
	"testing"
	"time"

	. "github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/gazetteer"
)

func testGenerator() *Generator {
	return NewGenerator(GeneratorConfig{BaselineAQI: gazetteer.BaselineAQI})
}

func TestGenerator_CurrentBounds(t *testing.T) {
	gen := testGenerator()
	now := time.Now()

	for _, city := range []string{"Tokyo", "Delhi", "Reykjavik", "Nowhereville", ""} {
		reading := gen.Current(Location{City: city}, now)

		if reading.AQI < SyntheticAQIMin || reading.AQI > SyntheticAQIMax {
			t.Errorf("%q: AQI %d outside [%d,%d]", city, reading.AQI, SyntheticAQIMin, SyntheticAQIMax)
		}
		if reading.Source != SourceSynthetic {
			t.Errorf("%q: source = %q, want %q", city, reading.Source, SourceSynthetic)
		}
		if !reading.Synthetic() {
			t.Errorf("%q: Synthetic() should be true", city)
		}
		for name, v := range map[string]float64{
			"pm25": reading.PM25, "pm10": reading.PM10, "o3": reading.O3,
			"no2": reading.NO2, "so2": reading.SO2, "co": reading.CO,
		} {
			if v < 0 {
				t.Errorf("%q: pollutant %s negative: %v", city, name, v)
			}
		}
	}
}

func TestGenerator_CurrentDeterministicWithinHour(t *testing.T) {
	gen := testGenerator()
	now := time.Date(2026, 3, 10, 14, 5, 0, 0, time.UTC)
	later := now.Add(10 * time.Minute)

	a := gen.Current(Location{City: "Paris"}, now)
	b := gen.Current(Location{City: "Paris"}, later)

	if a.AQI != b.AQI {
		t.Errorf("same city and hour bucket should agree: %d vs %d", a.AQI, b.AQI)
	}
}

func TestGenerator_ForecastShape(t *testing.T) {
	gen := testGenerator()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	forecast := gen.Forecast(Location{City: "Tokyo"}, now)

	if len(forecast.Points) != ForecastHours {
		t.Fatalf("got %d points, want %d", len(forecast.Points), ForecastHours)
	}

	for i, p := range forecast.Points {
		if p.AQI < SyntheticAQIMin || p.AQI > SyntheticAQIMax {
			t.Errorf("point %d: AQI %d outside [%d,%d]", i, p.AQI, SyntheticAQIMin, SyntheticAQIMax)
		}
		want := now.Add(time.Duration(i) * time.Hour)
		if !p.Timestamp.Equal(want) {
			t.Errorf("point %d: timestamp %v, want %v", i, p.Timestamp, want)
		}
		if i > 0 {
			prev := forecast.Points[i-1].Timestamp
			if !p.Timestamp.After(prev) {
				t.Errorf("point %d: timestamps not strictly increasing", i)
			}
			if p.Timestamp.Sub(prev) != time.Hour {
				t.Errorf("point %d: spacing %v, want 1h", i, p.Timestamp.Sub(prev))
			}
		}
	}
}

func TestGenerator_WeekendLowerOnAverage(t *testing.T) {
	gen := testGenerator()

	// A Monday and a Saturday at the same hour, averaged across the first
	// 24 points to smooth the noise.
	monday := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

	avg := func(ts time.Time) float64 {
		f := gen.Forecast(Location{City: "Berlin"}, ts)
		var sum int
		for _, p := range f.Points[:24] {
			sum += p.AQI
		}
		return float64(sum) / 24
	}

	// The weekday window includes no weekend hours; the Saturday window is
	// entirely weekend. The reduction should be visible over the average.
	if avg(saturday) >= avg(monday) {
		t.Errorf("weekend average %.1f should be below weekday average %.1f", avg(saturday), avg(monday))
	}
}

func TestAQIFromCategorical(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{1, 25}, {2, 75}, {3, 125}, {4, 175}, {5, 225},
		{0, 50}, {6, 50}, {-3, 50},
	}
	for _, tt := range tests {
		if got := AQIFromCategorical(tt.in); got != tt.want {
			t.Errorf("AQIFromCategorical(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		aqi  int
		want string
	}{
		{25, "Good"},
		{75, "Moderate"},
		{125, "Unhealthy for Sensitive Groups"},
		{175, "Unhealthy"},
		{250, "Very Unhealthy"},
		{400, "Hazardous"},
	}
	for _, tt := range tests {
		if got := Category(tt.aqi); got != tt.want {
			t.Errorf("Category(%d) = %q, want %q", tt.aqi, got, tt.want)
		}
	}
}
