package models

import (
	"github.com/airscape/airscape/internal/airquality"
)

// LocationDTO is the wire representation of a location.
type LocationDTO struct {
	City       string  `json:"city"`
	Country    string  `json:"country,omitempty"`
	State      string  `json:"state,omitempty"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	StationID  string  `json:"stationId,omitempty"`
	HasStation bool    `json:"hasStation"`
}

// NewLocationDTO converts a domain location.
func NewLocationDTO(loc airquality.Location) LocationDTO {
	return LocationDTO{
		City:       loc.City,
		Country:    loc.Country,
		State:      loc.State,
		Lat:        loc.Lat,
		Lon:        loc.Lon,
		StationID:  loc.StationID,
		HasStation: loc.HasStation,
	}
}

// Location converts back to the domain type.
func (d LocationDTO) Location() airquality.Location {
	return airquality.Location{
		City:       d.City,
		Country:    d.Country,
		State:      d.State,
		Lat:        d.Lat,
		Lon:        d.Lon,
		StationID:  d.StationID,
		HasStation: d.HasStation,
	}
}

// Pollutants holds the measured concentrations.
type Pollutants struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	O3   float64 `json:"o3"`
	NO2  float64 `json:"no2"`
	SO2  float64 `json:"so2"`
	CO   float64 `json:"co"`
}

// AirQualityResponse is the wire representation of a current reading.
// Estimated is true when the reading came from the synthetic generator, so
// clients can show an "estimated data" indicator.
type AirQualityResponse struct {
	AQI        int         `json:"aqi"`
	Category   string      `json:"category"`
	Pollutants Pollutants  `json:"pollutants"`
	Timestamp  Timestamp   `json:"timestamp"`
	Location   LocationDTO `json:"location"`
	Source     string      `json:"source"`
	Estimated  bool        `json:"estimated"`
}

// NewAirQualityResponse converts a domain reading.
func NewAirQualityResponse(r *airquality.Reading) AirQualityResponse {
	return AirQualityResponse{
		AQI:      r.AQI,
		Category: airquality.Category(r.AQI),
		Pollutants: Pollutants{
			PM25: r.PM25,
			PM10: r.PM10,
			O3:   r.O3,
			NO2:  r.NO2,
			SO2:  r.SO2,
			CO:   r.CO,
		},
		Timestamp: Timestamp(r.Timestamp),
		Location:  NewLocationDTO(r.Location),
		Source:    r.Source,
		Estimated: r.Synthetic(),
	}
}

// ForecastPointDTO is one hourly forecast sample.
type ForecastPointDTO struct {
	Timestamp Timestamp `json:"timestamp"`
	AQI       int       `json:"aqi"`
	PM25      float64   `json:"pm25"`
	PM10      float64   `json:"pm10"`
}

// ForecastResponse is the wire representation of an hourly forecast.
type ForecastResponse struct {
	Location  LocationDTO        `json:"location"`
	Source    string             `json:"source"`
	Estimated bool               `json:"estimated"`
	Points    []ForecastPointDTO `json:"points"`
}

// NewForecastResponse converts a domain forecast.
func NewForecastResponse(f *airquality.Forecast) ForecastResponse {
	points := make([]ForecastPointDTO, 0, len(f.Points))
	for _, p := range f.Points {
		points = append(points, ForecastPointDTO{
			Timestamp: Timestamp(p.Timestamp),
			AQI:       p.AQI,
			PM25:      p.PM25,
			PM10:      p.PM10,
		})
	}

	return ForecastResponse{
		Location:  NewLocationDTO(f.Location),
		Source:    f.Source,
		Estimated: f.Synthetic(),
		Points:    points,
	}
}
