package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/weather-card/internal/metrics"
)

// DefaultTimeout bounds each upstream call made during a refresh.
const DefaultTimeout = 10 * time.Second

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithTimeout sets the per-call upstream timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithOnUpdate registers a callback invoked with every new ViewModel record,
// including the loading transitions. It runs outside the Aggregator's lock.
func WithOnUpdate(fn func(ViewModel)) Option {
	return func(a *Aggregator) {
		a.onUpdate = fn
	}
}

// Aggregator owns the current ViewModel and keeps the observation and forecast
// halves of it in one logical snapshot.
//
// Refresh calls made while a fetch for the same location is in flight are
// coalesced into that fetch and share its result.
type Aggregator struct {
	observations ObservationSource
	forecasts    ForecastSource
	timeout      time.Duration
	onUpdate     func(ViewModel)

	group singleflight.Group

	mu         sync.RWMutex
	current    ViewModel
	location   Location
	configured bool
	inFlight   int
}

// NewAggregator creates an Aggregator with an empty ViewModel and no location.
func NewAggregator(observations ObservationSource, forecasts ForecastSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		observations: observations,
		forecasts:    forecasts,
		timeout:      DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Configure sets the identifiers used by subsequent refreshes. It does not fetch.
func (a *Aggregator) Configure(loc Location) {
	a.mu.Lock()
	a.location = loc
	a.configured = true
	a.mu.Unlock()

	log.Printf("INFO: aggregator configured for station=%s region=%s", loc.Station, loc.Region)
}

// Location returns the configured location, if any.
func (a *Aggregator) Location() (Location, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.location, a.configured
}

// Snapshot returns a copy of the current ViewModel.
func (a *Aggregator) Snapshot() ViewModel {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// IsLoading reports whether a fetch is in flight.
func (a *Aggregator) IsLoading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.inFlight > 0
}

// Refresh fetches the observation and forecast for the configured location
// concurrently and replaces the ViewModel with their merge.
//
// If either query fails the previous ViewModel is kept and the error is returned
// together with that stale record. The fetch itself is not tied to ctx
// cancellation; every upstream call is bounded by the configured timeout.
func (a *Aggregator) Refresh(ctx context.Context) (ViewModel, error) {
	if err := ctx.Err(); err != nil {
		return a.Snapshot(), err
	}

	a.mu.RLock()
	loc, ok := a.location, a.configured
	a.mu.RUnlock()
	if !ok {
		return a.Snapshot(), ErrNotConfigured
	}

	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := a.group.Do(loc.Key(), func() (interface{}, error) {
		return a.fetch(flightCtx, loc)
	})
	if shared {
		log.Printf("DEBUG: refresh for %s shared an in-flight fetch", loc.Key())
	}
	if err != nil {
		return a.Snapshot(), err
	}

	vm, _ := v.(ViewModel)
	return vm, nil
}

func (a *Aggregator) fetch(ctx context.Context, loc Location) (ViewModel, error) {
	a.begin()

	var (
		obs Observation
		fc  Forecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, a.timeout)
		defer cancel()

		o, err := a.observations.FetchObservation(callCtx, loc.Station)
		if err != nil {
			return fmt.Errorf("%s observation for %s: %w", a.observations.Name(), loc.Station, err)
		}
		obs = o
		return nil
	})
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, a.timeout)
		defer cancel()

		f, err := a.forecasts.FetchForecast(callCtx, loc.Region)
		if err != nil {
			return fmt.Errorf("%s forecast for %s: %w", a.forecasts.Name(), loc.Region, err)
		}
		fc = f
		return nil
	})

	err := g.Wait()
	return a.commit(loc, obs, fc, err)
}

// begin marks the record as loading before any upstream call is made.
func (a *Aggregator) begin() {
	metrics.RefreshesInFlight.Inc()

	a.mu.Lock()
	a.inFlight++
	next := a.current
	next.IsLoading = true
	a.current = next
	a.mu.Unlock()

	a.notify(next)
}

// commit settles one fetch. A successful merge replaces the whole record;
// failures and stale results only clear the loading flag.
func (a *Aggregator) commit(loc Location, obs Observation, fc Forecast, fetchErr error) (ViewModel, error) {
	metrics.RefreshesInFlight.Dec()

	a.mu.Lock()
	a.inFlight--
	loading := a.inFlight > 0

	var err error
	switch {
	case a.location != loc:
		err = fmt.Errorf("%w: fetched %s, now %s", ErrLocationChanged, loc.Key(), a.location.Key())
	case fetchErr != nil:
		err = fetchErr
	}

	var next ViewModel
	if err != nil {
		next = a.current
	} else {
		next = Merge(obs, fc)
	}
	next.IsLoading = loading
	a.current = next
	a.mu.Unlock()

	a.notify(next)

	switch {
	case errors.Is(err, ErrLocationChanged):
		metrics.RefreshesTotal.WithLabelValues("stale").Inc()
		log.Printf("INFO: discarding refresh result for %s: %v", loc.Key(), err)
		return next, err
	case err != nil:
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		log.Printf("ERROR: refresh failed for %s; keeping last good view: %v", loc.Key(), err)
		return next, err
	}

	metrics.RefreshesTotal.WithLabelValues("ok").Inc()
	return next, nil
}

func (a *Aggregator) notify(vm ViewModel) {
	if a.onUpdate != nil {
		a.onUpdate(vm)
	}
}
