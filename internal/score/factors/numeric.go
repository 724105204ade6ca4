package factors

import (
	"fmt"
	"strings"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

// chaldean letter values; letters not listed count zero.
var chaldean = map[byte]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'U': 6, 'O': 7, 'F': 8, 'P': 8,
	'I': 1, 'J': 1, 'Q': 1, 'Y': 1, 'K': 2, 'G': 3, 'L': 3, 'S': 3, 'M': 4,
	'T': 4, 'N': 5, 'H': 5, 'X': 5, 'V': 6, 'W': 6, 'Z': 7, 'R': 9,
}

var ascendingRuns = []string{"123", "234", "345", "456", "567", "678", "789"}

// reduceDigits folds n to a single digit, keeping the master numbers.
func reduceDigits(n int) int {
	for n > 9 && n != 11 && n != 22 && n != 33 {
		n = digitSum(n)
	}
	return n
}

func letters(name string) string {
	upper := strings.ToUpper(name)
	var sb strings.Builder
	for i := 0; i < len(upper); i++ {
		if c := upper[i]; c >= 'A' && c <= 'Z' {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func pythagoreanNumber(name string) int {
	sum := 0
	for _, c := range []byte(letters(name)) {
		sum += int(c-'A')%9 + 1
	}
	return reduceDigits(sum)
}

func chaldeanNumber(name string) int {
	sum := 0
	for _, c := range []byte(letters(name)) {
		sum += chaldean[c]
	}
	return reduceDigits(sum)
}

// timePattern rewards repeated or ascending digits in HHMMSS.
func timePattern(hour, minute, second int) float64 {
	s := fmt.Sprintf("%02d%02d%02d", hour, minute, second)
	for i := 0; i+2 < len(s); i++ {
		if s[i] == s[i+1] && s[i] == s[i+2] {
			return 1.0
		}
	}
	for _, run := range ascendingRuns {
		if strings.Contains(s, run) {
			return 0.9
		}
	}
	return 0.5
}

func closeness(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if diff <= 1 {
		return 1
	}
	return 1 / float64(diff+1)
}

// Numeric compares digit reductions of the founding date and name with the
// current moment.
type Numeric struct{}

func (Numeric) Slot() slot.Slot { return slot.Numeric }

func (Numeric) Score(b *bundle.Bundle, c *candidate.Profile) (float64, error) {
	if err := requireFounded(c); err != nil {
		return 0, err
	}

	lifePath := reduceDigits(digitSum(c.FoundedYear) + digitSum(c.Month()) + digitSum(c.Day()))
	nameP := pythagoreanNumber(c.Name)
	nameC := chaldeanNumber(c.Name)

	now := b.LocalTime()
	moment := reduceDigits(now.Year() + int(now.Month()) + now.Day() + now.Hour() + now.Minute())
	pattern := timePattern(now.Hour(), now.Minute(), now.Second())

	resonance := 0.5
	if d := nameP - nameC; d >= -1 && d <= 1 {
		resonance = 1
	}

	final := closeness(lifePath, moment)*0.3 + closeness(nameC, moment)*0.3 + pattern*0.2 + resonance*0.2
	return slot.Normalize(final, 0.1, 1, 0, 20), nil
}
