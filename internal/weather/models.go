package weather

import (
	"time"
)

// Location is the pair of upstream identifiers behind one selected city.
// Station keys the observation query, Region keys the forecast query.
type Location struct {
	Station string `json:"station"`
	Region  string `json:"region"`
}

// Key returns a canonical string key for this location.
func (l Location) Key() string {
	return l.Station + ":" + l.Region
}

// Observation is the current measured conditions reported by one station.
type Observation struct {
	LocationName       string
	ObservationTime    time.Time
	WindSpeed          float64 // m/s
	Temperature        float64 // Celsius
	WeatherDescription string
}

// Forecast is the nearest forecast window for a region.
type Forecast struct {
	Description     string
	WeatherCode     int
	RainProbability float64 // percent, 0-100
	Comfortability  string
	StartTime       time.Time
	EndTime         time.Time
}

// ViewModel is the merged weather view shown on the card.
// It is owned by the Aggregator and replaced as a whole on every update.
type ViewModel struct {
	LocationName      string    `json:"locationName"`
	Description       string    `json:"description"`
	WeatherCode       int       `json:"weatherCode"`
	Comfortability    string    `json:"comfortability"`
	WindSpeed         float64   `json:"windSpeed"`
	Temperature       float64   `json:"temperature"`
	RainProbability   float64   `json:"rainProbability"`
	ObservationTime   time.Time `json:"observationTime"`
	ObservedCondition string    `json:"observedCondition"`
	IsLoading         bool      `json:"isLoading"`
}
