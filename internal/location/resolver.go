package location

import (
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/weather-card/internal/weather"
)

// ErrUnknownLocation is returned for a city that is not in the table.
var ErrUnknownLocation = errors.New("unknown location")

// Moment is the day/night phase used for theming.
type Moment string

const (
	MomentDay   Moment = "day"
	MomentNight Moment = "night"
)

// Resolve maps a display city name to its observation station and forecast region.
func (t *Table) Resolve(city string) (weather.Location, error) {
	e, ok := t.entries[city]
	if !ok {
		return weather.Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, city)
	}
	return weather.Location{Station: e.Station, Region: e.Region}, nil
}

// CurrentMoment reports whether it is day or night in city at now, using the
// schedule row for now's month in the table's timezone. Sunrise counts as day,
// sunset counts as night.
func (t *Table) CurrentMoment(city string, now time.Time) (Moment, error) {
	e, ok := t.entries[city]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLocation, city)
	}

	local := now.In(t.tz)
	sun := e.Solar[local.Month()-1]

	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, t.tz)
	sinceMidnight := local.Sub(midnight)

	if sinceMidnight >= sun.Sunrise.Duration() && sinceMidnight < sun.Sunset.Duration() {
		return MomentDay, nil
	}
	return MomentNight, nil
}
