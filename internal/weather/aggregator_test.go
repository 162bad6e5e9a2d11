package weather

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeObservations struct {
	calls atomic.Int32
	gate  chan struct{} // when non-nil, each call blocks until it is closed
	start chan struct{} // when non-nil, receives a value as each call begins

	mu  sync.Mutex
	obs Observation
	err error
}

func (f *fakeObservations) Name() string { return "fake-observations" }

func (f *fakeObservations) FetchObservation(ctx context.Context, station string) (Observation, error) {
	f.calls.Add(1)
	if f.start != nil {
		f.start <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return Observation{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	obs := f.obs
	if obs.LocationName == "" {
		obs.LocationName = station
	}
	return obs, f.err
}

type fakeForecasts struct {
	calls atomic.Int32

	mu  sync.Mutex
	fc  Forecast
	err error
}

func (f *fakeForecasts) Name() string { return "fake-forecasts" }

func (f *fakeForecasts) FetchForecast(ctx context.Context, region string) (Forecast, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fc, f.err
}

var taipei = Location{Station: "臺北", Region: "臺北市"}

func taipeiObservation() Observation {
	return Observation{
		LocationName:       "臺北",
		ObservationTime:    time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC),
		WindSpeed:          1.1,
		Temperature:        22.3,
		WeatherDescription: "晴",
	}
}

func taipeiForecast() Forecast {
	return Forecast{
		Description:     "多雲時晴",
		WeatherCode:     2,
		RainProbability: 48.3,
		Comfortability:  "舒適",
	}
}

func TestRefreshMergesBothSources(t *testing.T) {
	obs := &fakeObservations{obs: taipeiObservation()}
	fc := &fakeForecasts{fc: taipeiForecast()}
	agg := NewAggregator(obs, fc)
	agg.Configure(taipei)

	vm, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := ViewModel{
		LocationName:      "臺北",
		Description:       "多雲時晴",
		WeatherCode:       2,
		Comfortability:    "舒適",
		WindSpeed:         1.1,
		Temperature:       22.3,
		RainProbability:   48.3,
		ObservationTime:   time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC),
		ObservedCondition: "晴",
		IsLoading:         false,
	}
	if vm != want {
		t.Fatalf("Refresh() = %+v, want %+v", vm, want)
	}
	if got := agg.Snapshot(); got != want {
		t.Fatalf("Snapshot() = %+v, want %+v", got, want)
	}
	if agg.IsLoading() {
		t.Fatal("expected IsLoading to be false after refresh settled")
	}
}

func TestRefreshWithoutLocation(t *testing.T) {
	agg := NewAggregator(&fakeObservations{}, &fakeForecasts{})

	_, err := agg.Refresh(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestRefreshForecastFailureKeepsPreviousView(t *testing.T) {
	obs := &fakeObservations{obs: taipeiObservation()}
	fc := &fakeForecasts{fc: taipeiForecast()}
	agg := NewAggregator(obs, fc)
	agg.Configure(taipei)

	before, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs.mu.Lock()
	obs.obs.Temperature = 30
	obs.mu.Unlock()
	fc.mu.Lock()
	fc.err = ErrUpstreamRequest
	fc.mu.Unlock()

	vm, err := agg.Refresh(context.Background())
	if !errors.Is(err, ErrUpstreamRequest) {
		t.Fatalf("expected ErrUpstreamRequest, got %v", err)
	}
	if vm != before {
		t.Fatalf("returned view = %+v, want previous %+v", vm, before)
	}
	if got := agg.Snapshot(); got != before {
		t.Fatalf("Snapshot() = %+v, want previous %+v", got, before)
	}
	if agg.IsLoading() {
		t.Fatal("expected IsLoading to be false after a failed refresh")
	}
}

func TestRefreshObservationFailureOnFirstFetch(t *testing.T) {
	obs := &fakeObservations{err: ErrMalformedResponse}
	fc := &fakeForecasts{fc: taipeiForecast()}
	agg := NewAggregator(obs, fc)
	agg.Configure(taipei)

	_, err := agg.Refresh(context.Background())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if got := agg.Snapshot(); got != (ViewModel{}) {
		t.Fatalf("expected empty view after failed first fetch, got %+v", got)
	}
}

func TestRefreshTimeoutIsRequestFailure(t *testing.T) {
	obs := &fakeObservations{obs: taipeiObservation(), gate: make(chan struct{})}
	defer close(obs.gate)
	agg := NewAggregator(obs, &fakeForecasts{fc: taipeiForecast()}, WithTimeout(20*time.Millisecond))
	agg.Configure(taipei)

	_, err := agg.Refresh(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if agg.IsLoading() {
		t.Fatal("expected IsLoading to be false after a timed out refresh")
	}
}

func TestRefreshLoadingLifecycleAndCoalescing(t *testing.T) {
	obs := &fakeObservations{
		obs:   taipeiObservation(),
		gate:  make(chan struct{}),
		start: make(chan struct{}, 4),
	}
	fc := &fakeForecasts{fc: taipeiForecast()}

	var (
		mu      sync.Mutex
		loading []bool
	)
	agg := NewAggregator(obs, fc, WithOnUpdate(func(vm ViewModel) {
		mu.Lock()
		loading = append(loading, vm.IsLoading)
		mu.Unlock()
	}))
	agg.Configure(taipei)

	results := make(chan ViewModel, 2)
	refresh := func() {
		vm, err := agg.Refresh(context.Background())
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		results <- vm
	}

	go refresh()
	<-obs.start
	if !agg.IsLoading() || !agg.Snapshot().IsLoading {
		t.Fatal("expected loading state while the first fetch is in flight")
	}

	go refresh()
	time.Sleep(50 * time.Millisecond)
	if !agg.IsLoading() {
		t.Fatal("expected loading state to hold while the second call waits")
	}

	close(obs.gate)
	first, second := <-results, <-results

	if first != second {
		t.Fatalf("coalesced calls returned different views: %+v vs %+v", first, second)
	}
	if n := obs.calls.Load(); n != 1 {
		t.Fatalf("expected 1 observation call, got %d", n)
	}
	if n := fc.calls.Load(); n != 1 {
		t.Fatalf("expected 1 forecast call, got %d", n)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(loading) != 2 || !loading[0] || loading[1] {
		t.Fatalf("loading transitions = %v, want [true false]", loading)
	}
}

func TestRefreshDiscardsResultForPreviousLocation(t *testing.T) {
	obs := &fakeObservations{
		obs:   taipeiObservation(),
		gate:  make(chan struct{}),
		start: make(chan struct{}, 1),
	}
	agg := NewAggregator(obs, &fakeForecasts{fc: taipeiForecast()})
	agg.Configure(taipei)

	errs := make(chan error, 1)
	go func() {
		_, err := agg.Refresh(context.Background())
		errs <- err
	}()

	<-obs.start
	agg.Configure(Location{Station: "高雄", Region: "高雄市"})
	close(obs.gate)

	if err := <-errs; !errors.Is(err, ErrLocationChanged) {
		t.Fatalf("expected ErrLocationChanged, got %v", err)
	}
	if got := agg.Snapshot(); got != (ViewModel{}) {
		t.Fatalf("expected stale result to be discarded, got %+v", got)
	}
	if agg.IsLoading() {
		t.Fatal("expected IsLoading to be false after the stale fetch settled")
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	agg := NewAggregator(&fakeObservations{obs: taipeiObservation()}, &fakeForecasts{fc: taipeiForecast()})
	agg.Configure(taipei)

	first, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected equal views, got %+v and %+v", first, second)
	}
}

func TestRefreshCancelledContext(t *testing.T) {
	obs := &fakeObservations{obs: taipeiObservation()}
	agg := NewAggregator(obs, &fakeForecasts{fc: taipeiForecast()})
	agg.Configure(taipei)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := agg.Refresh(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := obs.calls.Load(); n != 0 {
		t.Fatalf("expected no upstream calls, got %d", n)
	}
}
