package models

import "time"

// CacheKeyPrefix namespaces forecast results per event in the cache store
const CacheKeyPrefix = "EventID:"

// ForecastPoint is a single instant from the provider's forecast time series
type ForecastPoint struct {
	Time           time.Time `json:"time"`
	AirTemperature float64   `json:"airTemperature"`
	WindSpeed      float64   `json:"windSpeed"`
}

// RawSeries is the forecast time series in provider order. Ordering is
// whatever the provider returned; nothing downstream sorts it.
type RawSeries []ForecastPoint

// EventWindow is the validated location and time interval of an event
type EventWindow struct {
	EventID   string
	Latitude  float64
	Longitude float64
	Start     time.Time
	End       time.Time
}

// CacheKey returns the cache key for the window's event
func (w EventWindow) CacheKey() string {
	return CacheKey(w.EventID)
}

// ForecastResult is the averaged forecast for an event. It is both the cached
// value and the response payload.
type ForecastResult struct {
	AirTemperature float64 `json:"airTemperature" dynamodbav:"airTemperature"`
	WindSpeed      float64 `json:"windSpeed" dynamodbav:"windSpeed"`
}

// CacheKey builds the cache key for an event id
func CacheKey(eventID string) string {
	return CacheKeyPrefix + eventID
}
