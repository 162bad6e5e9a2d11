// Package card drives the weather card: it turns a city selection into an
// aggregator configuration and renders the aggregator's state for display.
package card

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/i474232898/weather-card/internal/icon"
	"github.com/i474232898/weather-card/internal/location"
	"github.com/i474232898/weather-card/internal/store"
	"github.com/i474232898/weather-card/internal/weather"
)

// PreferenceKey is the preference holding the last chosen city.
const PreferenceKey = "selectedCity"

// ErrNoCitySelected is returned by View before Start or SelectCity succeeded.
var ErrNoCitySelected = errors.New("no city selected")

// Preferences is the key/value store the selected city is persisted in.
type Preferences interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Theme is the card's colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemeFor picks the light theme by day and the dark theme at night.
func ThemeFor(m location.Moment) Theme {
	if m == location.MomentDay {
		return ThemeLight
	}
	return ThemeDark
}

// View is everything the card shows at one instant.
type View struct {
	City string `json:"city"`
	weather.ViewModel
	Moment      location.Moment `json:"moment"`
	Theme       Theme           `json:"theme"`
	Icon        string          `json:"icon"`
	ObservedAt  string          `json:"observedAt"`
	RainPercent int             `json:"rainPercent"`
}

// Controller owns the selected city and turns user actions into aggregator commands.
type Controller struct {
	table       *location.Table
	aggregator  *weather.Aggregator
	prefs       Preferences
	defaultCity string
	now         func() time.Time

	mu   sync.RWMutex
	city string
}

// NewController creates a Controller. defaultCity is used when no saved city is usable.
func NewController(table *location.Table, aggregator *weather.Aggregator, prefs Preferences, defaultCity string) *Controller {
	return &Controller{
		table:       table,
		aggregator:  aggregator,
		prefs:       prefs,
		defaultCity: defaultCity,
		now:         time.Now,
	}
}

// Start reads the saved city once, configures the aggregator for it and fetches.
// A failed fetch is returned, but the selection stays in place.
func (c *Controller) Start(ctx context.Context) error {
	city := c.defaultCity

	saved, err := c.prefs.Get(ctx, PreferenceKey)
	switch {
	case err == nil:
		if _, ok := c.table.Lookup(saved); ok {
			city = saved
		} else {
			log.Printf("INFO: saved city %q is not selectable; using %s", saved, c.defaultCity)
		}
	case errors.Is(err, store.ErrNotFound):
		log.Printf("INFO: no saved city; using %s", c.defaultCity)
	default:
		log.Printf("ERROR: reading saved city failed; using %s: %v", c.defaultCity, err)
	}

	loc, err := c.table.Resolve(city)
	if err != nil {
		return fmt.Errorf("initial city: %w", err)
	}
	c.apply(city, loc)

	_, err = c.aggregator.Refresh(ctx)
	return err
}

// SelectCity switches to city, persists the choice and fetches its weather.
// Unknown cities are rejected before anything is saved.
func (c *Controller) SelectCity(ctx context.Context, city string) (View, error) {
	loc, err := c.table.Resolve(city)
	if err != nil {
		return View{}, err
	}
	if err := c.prefs.Set(ctx, PreferenceKey, city); err != nil {
		return View{}, fmt.Errorf("save selected city: %w", err)
	}
	c.apply(city, loc)

	return c.Refresh(ctx)
}

// Refresh re-fetches the selected city's weather. On failure the returned View
// still holds the last good data.
func (c *Controller) Refresh(ctx context.Context) (View, error) {
	_, refreshErr := c.aggregator.Refresh(ctx)

	v, err := c.View(c.now())
	if err != nil {
		return v, err
	}
	return v, refreshErr
}

// View renders the current state as of now.
func (c *Controller) View(now time.Time) (View, error) {
	city := c.City()
	if city == "" {
		return View{}, ErrNoCitySelected
	}

	moment, err := c.table.CurrentMoment(city, now)
	if err != nil {
		return View{}, err
	}

	vm := c.aggregator.Snapshot()
	return View{
		City:        city,
		ViewModel:   vm,
		Moment:      moment,
		Theme:       ThemeFor(moment),
		Icon:        icon.Select(vm.WeatherCode, moment),
		ObservedAt:  FormatShortTime(vm.ObservationTime, c.table.Timezone()),
		RainPercent: int(math.Round(vm.RainProbability)),
	}, nil
}

// City returns the selected display city, or "" before a city is selected.
func (c *Controller) City() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.city
}

// Cities lists every selectable city for the settings view.
func (c *Controller) Cities() []string {
	return c.table.Cities()
}

func (c *Controller) apply(city string, loc weather.Location) {
	c.mu.Lock()
	c.city = city
	c.mu.Unlock()

	c.aggregator.Configure(loc)
}
