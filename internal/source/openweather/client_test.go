package openweather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airscape/airscape/internal/airquality"
)

var testLoc = airquality.Location{City: "Amsterdam", Country: "NL", Lat: 52.3676, Lon: 4.9041}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "changeme"})

	_, err := client.FetchCurrent(context.Background(), testLoc)
	assert.ErrorIs(t, err, airquality.ErrNotConfigured)

	_, err = client.FetchForecast(context.Background(), testLoc)
	assert.ErrorIs(t, err, airquality.ErrNotConfigured)

	_, err = client.SearchCities(context.Background(), "amsterdam")
	assert.ErrorIs(t, err, airquality.ErrNotConfigured)

	_, err = client.ReverseGeocode(context.Background(), 52.4, 4.9)
	assert.ErrorIs(t, err, airquality.ErrNotConfigured)
}

func TestClient_FetchCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/air_pollution", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`{
			"list": [{
				"main": {"aqi": 2},
				"components": {"co": 201.9, "no2": 13.4, "o3": 68.7, "so2": 1.5, "pm2_5": 8.2, "pm10": 11.0},
				"dt": 1767225600
			}]
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "secret", BaseURL: server.URL})

	reading, err := client.FetchCurrent(context.Background(), testLoc)
	require.NoError(t, err)

	assert.Equal(t, 75, reading.AQI, "categorical index 2 maps to 75")
	assert.Equal(t, 8.2, reading.PM25)
	assert.Equal(t, 11.0, reading.PM10)
	assert.Equal(t, 68.7, reading.O3)
	assert.Equal(t, 13.4, reading.NO2)
	assert.Equal(t, 1.5, reading.SO2)
	assert.Equal(t, 201.9, reading.CO)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), reading.Timestamp)
	assert.Equal(t, ProviderName, reading.Source)
}

func TestClient_FetchCurrent_EmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list":[]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "secret", BaseURL: server.URL})

	_, err := client.FetchCurrent(context.Background(), testLoc)
	assert.ErrorIs(t, err, airquality.ErrUpstream)
}

func TestClient_FetchForecast_Truncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/air_pollution/forecast", r.URL.Path)

		body := `{"list":[`
		for i := 0; i < 96; i++ {
			if i > 0 {
				body += ","
			}
			body += `{"main":{"aqi":3},"components":{"pm2_5":10,"pm10":15},"dt":1767225600}`
		}
		body += `]}`
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "secret", BaseURL: server.URL})

	forecast, err := client.FetchForecast(context.Background(), testLoc)
	require.NoError(t, err)

	assert.Len(t, forecast.Points, airquality.ForecastHours)
	assert.Equal(t, 125, forecast.Points[0].AQI)
	assert.Equal(t, 10.0, forecast.Points[0].PM25)
	assert.Equal(t, testLoc, forecast.Location)
	assert.Equal(t, ProviderName, forecast.Source)
}

func TestClient_FetchForecast_PadsShortList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list":[
			{"main":{"aqi":2},"components":{"pm2_5":8,"pm10":12},"dt":1767225600},
			{"main":{"aqi":3},"components":{"pm2_5":10,"pm10":15},"dt":1767229200}
		]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "secret", BaseURL: server.URL})

	forecast, err := client.FetchForecast(context.Background(), testLoc)
	require.NoError(t, err)
	require.Len(t, forecast.Points, airquality.ForecastHours)

	assert.Equal(t, 75, forecast.Points[0].AQI)
	assert.Equal(t, 125, forecast.Points[1].AQI)

	// Padding repeats the last real point with hourly timestamps.
	last := forecast.Points[1]
	for i := 2; i < airquality.ForecastHours; i++ {
		point := forecast.Points[i]
		assert.Equal(t, last.AQI, point.AQI)
		assert.Equal(t, last.PM25, point.PM25)
		assert.Equal(t, last.Timestamp.Add(time.Duration(i-1)*time.Hour), point.Timestamp)
	}
	for i := 1; i < airquality.ForecastHours; i++ {
		assert.True(t, forecast.Points[i].Timestamp.After(forecast.Points[i-1].Timestamp))
	}
}

func TestClient_FetchForecast_SortsUnorderedList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list":[
			{"main":{"aqi":4},"components":{"pm2_5":20,"pm10":30},"dt":1767232800},
			{"main":{"aqi":2},"components":{"pm2_5":8,"pm10":12},"dt":1767225600},
			{"main":{"aqi":3},"components":{"pm2_5":10,"pm10":15},"dt":1767229200}
		]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "secret", BaseURL: server.URL})

	forecast, err := client.FetchForecast(context.Background(), testLoc)
	require.NoError(t, err)
	require.Len(t, forecast.Points, airquality.ForecastHours)

	assert.Equal(t, 75, forecast.Points[0].AQI, "earliest timestamp first")
	assert.Equal(t, 125, forecast.Points[1].AQI)
	assert.Equal(t, 175, forecast.Points[2].AQI)
}

func TestClient_SearchCities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/direct", r.URL.Path)
		assert.Equal(t, "amsterdam", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[
			{"name": "Amsterdam", "lat": 52.3676, "lon": 4.9041, "country": "NL", "state": "North Holland"},
			{"name": "Null Island", "lat": 0, "lon": 0, "country": ""},
			{"name": "Amsterdam", "lat": 42.9387, "lon": -74.1882, "country": "US", "state": "New York"}
		]`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "secret", GeoURL: server.URL})

	locations, err := client.SearchCities(context.Background(), "amsterdam")
	require.NoError(t, err)
	require.Len(t, locations, 2, "the (0,0) record is dropped")

	assert.Equal(t, "Amsterdam", locations[0].City)
	assert.Equal(t, "NL", locations[0].Country)
	assert.Equal(t, "North Holland", locations[0].State)
	assert.False(t, locations[0].HasStation)
	assert.Equal(t, "US", locations[1].Country)
}

func TestClient_ReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		_, _ = w.Write([]byte(`[{"name": "Utrecht", "lat": 52.0907, "lon": 5.1214, "country": "NL"}]`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "secret", GeoURL: server.URL})

	loc, err := client.ReverseGeocode(context.Background(), 52.09, 5.12)
	require.NoError(t, err)
	assert.Equal(t, "Utrecht", loc.City)
	assert.Equal(t, "NL", loc.Country)
}

func TestClient_ReverseGeocode_NoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "secret", GeoURL: server.URL})

	_, err := client.ReverseGeocode(context.Background(), 0.01, 0.01)
	assert.ErrorIs(t, err, airquality.ErrUpstream)
}
