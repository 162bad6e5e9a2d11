// Package icon maps CWA weather codes to card artwork.
package icon

import (
	"fmt"

	"github.com/i474232898/weather-card/internal/location"
)

// Type is a coarse weather category with its own artwork.
type Type string

const (
	Thunderstorm           Type = "thunderstorm"
	Clear                  Type = "clear"
	CloudyFog              Type = "cloudy-fog"
	Cloudy                 Type = "cloudy"
	Fog                    Type = "fog"
	PartiallyClearWithRain Type = "partially-clear-with-rain"
	Snowing                Type = "snowing"
)

// CWA Wx codes per category.
var codeGroups = map[Type][]int{
	Thunderstorm:           {15, 16, 17, 18, 21, 22, 33, 34, 35, 36, 41},
	Clear:                  {1},
	CloudyFog:              {25, 26, 27, 28},
	Cloudy:                 {2, 3, 4, 5, 6, 7},
	Fog:                    {24},
	PartiallyClearWithRain: {8, 9, 10, 11, 12, 13, 14, 19, 20, 29, 30, 31, 32, 38, 39},
	Snowing:                {23, 37, 42},
}

var typeByCode = func() map[int]Type {
	m := make(map[int]Type)
	for t, codes := range codeGroups {
		for _, c := range codes {
			m[c] = t
		}
	}
	return m
}()

// TypeOf returns the category for a weather code; unknown codes are Clear.
func TypeOf(code int) Type {
	if t, ok := typeByCode[code]; ok {
		return t
	}
	return Clear
}

// Select returns the asset reference for a weather code at the given moment.
func Select(code int, m location.Moment) string {
	if m != location.MomentNight {
		m = location.MomentDay
	}
	return fmt.Sprintf("%s/%s.svg", m, TypeOf(code))
}
