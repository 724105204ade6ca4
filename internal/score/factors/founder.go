package factors

import (
	"math"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

// unresolvedFounderScore applies when none of the listed founders is known.
const unresolvedFounderScore = 10

// FounderDestiny scores the founding team against the current hour.
type FounderDestiny struct {
	Founders *candidate.FounderTable
}

func (FounderDestiny) Slot() slot.Slot { return slot.Founder }

func (f FounderDestiny) Score(b *bundle.Bundle, c *candidate.Profile) (float64, error) {
	if c == nil {
		return 0, ErrMalformedProfile
	}

	known := make([]candidate.Founder, 0, len(c.Founders))
	for _, name := range c.Founders {
		if p, ok := f.Founders.Lookup(name); ok {
			known = append(known, p)
		}
	}
	if len(known) == 0 {
		return unresolvedFounderScore, nil
	}

	n := float64(len(known))
	charisma, innovation := 0.0, 0.0
	for _, p := range known {
		charisma += p.Charisma
		innovation += p.Innovation
	}
	avgC, avgI := charisma/n, innovation/n

	energy := math.Sqrt(avgC * avgI)

	current := b.LocalTime().Hour()%9 + 1
	alignment := 0.0
	for _, p := range known {
		alignment += 1 - math.Abs(float64(p.LifePath-current))/9
	}
	alignment /= n

	balance := (1-math.Abs(avgC-avgI))*0.4 + ((avgC+avgI)/2)*0.6

	final := energy*0.3 + alignment*0.25 + teamBonus(len(c.Founders))*0.15 + balance*0.15 + culturalMix(c.Founders)*0.15
	return slot.Normalize(final, 0.4, 1, 0, 20), nil
}

func teamBonus(count int) float64 {
	switch count {
	case 1:
		return 0.8
	case 2:
		return 1.0
	case 3:
		return 0.95
	}
	return 0.85
}

// culturalMix rewards teams mixing Han-script and other names.
func culturalMix(names []string) float64 {
	han, other := false, false
	for _, name := range names {
		if hasHan(name) {
			han = true
		} else {
			other = true
		}
	}
	if han && other {
		return 1.0
	}
	return 0.85
}

func hasHan(s string) bool {
	for _, r := range s {
		if r >= 0x4e00 && r <= 0x9fa5 {
			return true
		}
	}
	return false
}
