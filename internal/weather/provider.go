package weather

import (
	"context"
	"errors"
)

var (
	// ErrUpstreamRequest is returned when an upstream call fails at the transport level
	// or answers with a non-2xx status.
	ErrUpstreamRequest = errors.New("upstream request failed")

	// ErrMalformedResponse is returned when an upstream call succeeded but the payload
	// is missing an expected location or weather element.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrNotConfigured is returned by Refresh before Configure was called.
	ErrNotConfigured = errors.New("aggregator has no location configured")

	// ErrLocationChanged is returned when the configured location changed while a fetch
	// was in flight; the fetched data is discarded.
	ErrLocationChanged = errors.New("location changed during refresh")
)

// ObservationSource abstracts the current-observation feed.
type ObservationSource interface {
	Name() string
	FetchObservation(ctx context.Context, station string) (Observation, error)
}

// ForecastSource abstracts the regional forecast feed.
type ForecastSource interface {
	Name() string
	FetchForecast(ctx context.Context, region string) (Forecast, error)
}
