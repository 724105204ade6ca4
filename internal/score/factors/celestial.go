package factors

import (
	"math"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

const (
	msPerDay = 86400000
	// j2000 is 2000-01-01T00:00:00Z in unix milliseconds.
	j2000 = 946684800000
)

type body struct {
	name   string
	period float64 // days
}

var bodies = []body{
	{"Sun", 365.25},
	{"Moon", 27.32},
	{"Mercury", 87.97},
	{"Venus", 224.7},
	{"Mars", 686.98},
	{"Jupiter", 4332.59},
	{"Saturn", 10759.22},
	{"Uranus", 30688.5},
	{"Neptune", 60182},
	{"Pluto", 90560},
}

var asteroids = []body{
	{"Ceres", 1680},
	{"Pallas", 1686},
	{"Juno", 1592},
	{"Vesta", 1325},
}

const mercuryPeriod = 87.97

var houseScores = map[int]float64{
	1: 0.8, 2: 0.6, 3: 0.9, 4: 0.5, 5: 0.85, 6: 0.95,
	7: 0.7, 8: 0.4, 9: 0.75, 10: 0.9, 11: 0.8, 12: 0.3,
}

// bodyPosition is the ecliptic longitude of a body with the given period.
// The sign follows the elapsed time, so instants before 2000 go negative.
func bodyPosition(period float64, ts int64) float64 {
	cycle := period * msPerDay
	perturbation := math.Sin(float64(ts)/(cycle/100)) * 2
	return math.Mod((float64(ts-j2000)/cycle)*360+perturbation, 360)
}

func aspectScore(angle float64) float64 {
	near := func(target, tol float64) bool {
		return math.Abs(angle-target) <= tol || math.Abs(angle-(360-target)) <= tol
	}
	switch {
	case near(0, 8):
		return 1.0
	case near(180, 8):
		return -1.0
	case near(90, 7):
		return -0.8
	case near(120, 7):
		return 0.9
	case near(60, 5):
		return 0.6
	}
	return 0
}

func houseScore(ts int64, lon float64) float64 {
	lst := float64(ts%msPerDay)/3600000*15 + lon
	asc := math.Mod(math.Atan(math.Tan(lst*math.Pi/180)*math.Cos(23.44*math.Pi/180))*180/math.Pi+360, 360)
	if s, ok := houseScores[int(math.Floor(asc/30))+1]; ok {
		return s
	}
	return 0.5
}

// Celestial scores planetary aspects between now and the founding date.
type Celestial struct{}

func (Celestial) Slot() slot.Slot { return slot.Celestial }

func (Celestial) Score(b *bundle.Bundle, c *candidate.Profile) (float64, error) {
	if err := requireFounded(c); err != nil {
		return 0, err
	}
	birthday := c.Founded(b.Location()).UnixMilli()

	planetary := 0.0
	for _, p := range bodies {
		angle := math.Abs(bodyPosition(p.period, b.Timestamp) - bodyPosition(p.period, birthday))
		planetary += aspectScore(angle)
	}

	// Asteroids are compared against Mercury's current position.
	minor := 0.0
	current := bodyPosition(mercuryPeriod, b.Timestamp)
	for _, a := range asteroids {
		natal := math.Mod((float64(birthday-j2000)/(a.period*msPerDay))*360, 360)
		minor += aspectScore(math.Abs(current-natal)) * 0.2
	}

	house := houseScore(b.Timestamp, b.Longitude)
	lunar := 0.5 + 0.5*math.Sin(b.MoonPhase*2*math.Pi-math.Pi/2)

	final := planetary*0.5 + minor*0.15 + house*0.2 + lunar*0.15
	return slot.Normalize(final, -5, 10, 0, 20), nil
}
