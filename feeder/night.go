package feeder

import (
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// NightSchedule tells day from night at a location.
type NightSchedule struct {
	Latitude  float64
	Longitude float64
}

// IsNight reports whether t lies between a sunset and the following sunrise.
// The neighbouring days are checked as well, since far from Greenwich the
// daylight span of one UTC date can cross midnight. Polar day and night,
// where go-sunrise returns zero times, count as day.
func (n NightSchedule) IsNight(t time.Time) bool {
	utc := t.UTC()
	polar := true
	for _, offset := range []int{-1, 0, 1} {
		day := utc.AddDate(0, 0, offset)
		rise, set := sunrise.SunriseSunset(n.Latitude, n.Longitude, day.Year(), day.Month(), day.Day())
		if rise.IsZero() || set.IsZero() {
			continue
		}
		polar = false
		if !utc.Before(rise) && utc.Before(set) {
			return false
		}
	}
	return !polar
}
