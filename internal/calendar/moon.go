package calendar

import (
	"math"
	"time"
)

const synodicMonth = 29.5305882

// MoonPhase returns the lunation fraction in [0,1) for the calendar date of t
// using a simplified Julian-day count. 0 is new moon, 0.5 full moon.
func MoonPhase(t time.Time) float64 {
	year, month, day := t.Date()
	c, e := year, int(month)
	if month < time.March {
		c = year - 1
		e = int(month) + 12
	}

	jd := math.Floor(365.25*float64(c)) + math.Floor(30.6*float64(e)) + float64(day) - 694039.09
	jd /= synodicMonth
	return jd - math.Floor(jd)
}
