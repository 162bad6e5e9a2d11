package location

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed locations.yaml
var embeddedTable []byte

// fallbackZone is used when the zone database has no entry for the table's timezone.
var fallbackZone = time.FixedZone("CST", 8*60*60)

// TimeOfDay is a wall-clock time as minutes since local midnight.
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// Clock builds a TimeOfDay from an hour and minute.
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// Duration returns the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// UnmarshalYAML decodes an "HH:MM" scalar.
func (t *TimeOfDay) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTimeOfDay(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*t = parsed
	return nil
}

// SolarTime holds one month's sunrise and sunset. Sunrise is always before sunset.
type SolarTime struct {
	Sunrise TimeOfDay `yaml:"sunrise"`
	Sunset  TimeOfDay `yaml:"sunset"`
}

// Entry maps a selectable city to its upstream identifiers and solar schedule.
// Solar is indexed by calendar month, January first.
type Entry struct {
	City      string
	Station   string
	Region    string
	Latitude  float64
	Longitude float64
	Solar     [12]SolarTime
}

// Table is the closed, immutable set of selectable cities.
type Table struct {
	tz      *time.Location
	entries map[string]Entry
	cities  []string
}

// New builds a Table from entries in display order.
func New(tz *time.Location, entries ...Entry) (*Table, error) {
	if tz == nil {
		tz = fallbackZone
	}
	t := &Table{
		tz:      tz,
		entries: make(map[string]Entry, len(entries)),
		cities:  make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		if e.City == "" {
			return nil, errors.New("location entry without city name")
		}
		if e.Station == "" || e.Region == "" {
			return nil, fmt.Errorf("location %s: station and region are required", e.City)
		}
		if _, dup := t.entries[e.City]; dup {
			return nil, fmt.Errorf("location %s: duplicate city", e.City)
		}
		t.entries[e.City] = e
		t.cities = append(t.cities, e.City)
	}
	return t, nil
}

type tableFile struct {
	Timezone  string `yaml:"timezone"`
	Locations []struct {
		City      string      `yaml:"city"`
		Station   string      `yaml:"station"`
		Region    string      `yaml:"region"`
		Latitude  float64     `yaml:"latitude"`
		Longitude float64     `yaml:"longitude"`
		Solar     []SolarTime `yaml:"solar"`
	} `yaml:"locations"`
}

// Load decodes the table compiled into the binary.
func Load() (*Table, error) {
	return Parse(embeddedTable)
}

// Parse decodes a YAML location table.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode location table: %w", err)
	}

	entries := make([]Entry, 0, len(f.Locations))
	for _, l := range f.Locations {
		if len(l.Solar) != 12 {
			return nil, fmt.Errorf("location %s: want 12 solar rows, got %d", l.City, len(l.Solar))
		}
		e := Entry{
			City:      l.City,
			Station:   l.Station,
			Region:    l.Region,
			Latitude:  l.Latitude,
			Longitude: l.Longitude,
		}
		copy(e.Solar[:], l.Solar)
		entries = append(entries, e)
	}

	return New(loadZone(f.Timezone), entries...)
}

func loadZone(name string) *time.Location {
	if name == "" {
		return fallbackZone
	}
	tz, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Warning: could not load %s timezone, using UTC+8: %v", name, err)
		return fallbackZone
	}
	return tz
}

// Timezone returns the zone the solar schedules are expressed in.
func (t *Table) Timezone() *time.Location {
	return t.tz
}

// Cities returns every display city name in table order.
func (t *Table) Cities() []string {
	out := make([]string, len(t.cities))
	copy(out, t.cities)
	return out
}

// Lookup returns the entry for a display city name.
func (t *Table) Lookup(city string) (Entry, bool) {
	e, ok := t.entries[city]
	return e, ok
}
