package factors

import (
	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

var gematriaValues = [26]int{
	1, 2, 3, 4, 5, 80, 3, 8, 10, 10, 20, 30, 40,
	50, 70, 80, 100, 200, 300, 9, 6, 6, 6, 60, 10, 7,
}

// sephiroth scores, Keter through Malkuth.
var sephiroth = [10]float64{1.0, 0.9, 0.8, 0.85, 0.7, 0.95, 0.75, 0.6, 1.0, 0.5}

func gematria(text string) int {
	sum := 0
	for _, c := range []byte(letters(text)) {
		sum += gematriaValues[c-'A']
	}
	for sum > 9 {
		sum = digitSum(sum)
	}
	return sum
}

// Correspondence maps name, model and weekday onto the ten sephiroth.
type Correspondence struct{}

func (Correspondence) Slot() slot.Slot { return slot.Correspondence }

func (Correspondence) Score(b *bundle.Bundle, c *candidate.Profile) (float64, error) {
	if c == nil {
		return 0, ErrMalformedProfile
	}
	idx := (gematria(c.Name) + gematria(c.Model) + b.Weekday) % len(sephiroth)
	return sephiroth[idx] * 10, nil
}
