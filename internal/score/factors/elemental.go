package factors

import (
	"math"
	"time"

	"github.com/sawpanic/vibeoracle/internal/calendar"
	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

const (
	wood = iota
	fire
	earth
	metal
	water
)

// elementMatrix[a][b] is how strongly element a supports (positive) or
// restrains (negative) element b.
var elementMatrix = [5][5]float64{
	wood:  {wood: 0.5, fire: 1, earth: -1, metal: -0.8, water: 0.9},
	fire:  {wood: 0.9, fire: 0.5, earth: 1, metal: -1, water: -0.8},
	earth: {wood: -1, fire: 0.9, earth: 0.5, metal: 1, water: -0.8},
	metal: {wood: -0.8, fire: -1, earth: 0.9, metal: 0.5, water: 1},
	water: {wood: 1, fire: -0.8, earth: -1, metal: 0.9, water: 0.5},
}

var stemElements = [10]int{wood, wood, fire, fire, earth, earth, metal, metal, water, water}

var branchElements = [12]int{water, earth, wood, wood, earth, fire, fire, earth, metal, metal, earth, water}

var deviceElements = map[string]int{
	"Windows": metal,
	"macOS":   wood,
	"Linux":   water,
	"iOS":     fire,
	"Android": earth,
}

// Branch pairs keyed by branch index. Each pair is listed once.
var (
	branchClash = map[int]int{0: 6, 1: 7, 2: 8, 3: 9, 4: 10, 5: 11}
	branchCombo = map[int]int{0: 1, 2: 11, 3: 10, 4: 9, 5: 8, 6: 7}
)

type pillar struct {
	stem, branch int
}

// fourPillars are year, month, day and hour in that order.
type fourPillars [4]pillar

func pillarsOf(t time.Time) fourPillars {
	year, month, _ := t.Date()
	m0 := int(month) - 1

	yc := (year - 4) % 60
	epoch := time.Date(1900, time.January, 1, 0, 0, 0, 0, t.Location())
	dd := int(math.Floor(float64(t.UnixMilli()-epoch.UnixMilli())/86400000)) + 10
	hb := calendar.HourIndex(t.Hour())

	return fourPillars{
		{stem: yc % 10, branch: yc % 12},
		{stem: (yc%5*2 + m0 + 2) % 10, branch: (m0 + 2) % 12},
		{stem: dd % 10, branch: (dd + 10) % 12},
		{stem: (dd%5*2 + hb) % 10, branch: hb},
	}
}

func paired(table map[int]int, a, b int) bool {
	if v, ok := table[a]; ok && v == b {
		return true
	}
	v, ok := table[b]
	return ok && v == a
}

func pillarInteraction(now, founded fourPillars) float64 {
	score := 0.0
	for i := range now {
		a, b := now[i].branch, founded[i].branch
		if paired(branchClash, a, b) {
			score -= 0.25
		}
		if paired(branchCombo, a, b) {
			score += 0.25
		}
	}
	return score
}

func locationElement(lon, lat float64) int {
	angle := math.Mod(math.Atan2(lat, lon)*180/math.Pi+360, 360)
	switch {
	case angle >= 337.5 || angle < 22.5:
		return water
	case angle < 67.5:
		return earth
	case angle < 157.5:
		return wood
	case angle < 202.5:
		return fire
	case angle < 247.5:
		return earth
	default:
		return metal
	}
}

func deviceElement(os string) int {
	if el, ok := deviceElements[os]; ok {
		return el
	}
	return earth
}

// Elemental compares the five-element signature of the current moment with
// the candidate's founding moment.
type Elemental struct{}

func (Elemental) Slot() slot.Slot { return slot.Elemental }

func (Elemental) Score(b *bundle.Bundle, c *candidate.Profile) (float64, error) {
	if err := requireFounded(c); err != nil {
		return 0, err
	}

	now := pillarsOf(b.LocalTime())
	founded := pillarsOf(c.Founded(b.Location()))
	company := stemElements[founded[0].stem]

	harmony := 0.0
	harmony += elementMatrix[branchElements[now[3].branch]][company] * 0.3
	harmony += elementMatrix[locationElement(b.Longitude, b.Latitude)][company] * 0.2
	harmony += elementMatrix[deviceElement(b.OS)][company] * 0.15
	harmony += pillarInteraction(now, founded) * 0.35

	return slot.Normalize(harmony, -1.5, 1.5, 0, 20), nil
}
