package factors

import (
	"encoding/hex"
	"fmt"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

const (
	oldYin   = 6
	oldYang  = 9
	lineCast = 6
)

// hexagramScores holds the judgement score of each six-line pattern, indexed
// with the first cast line as the most significant bit.
var hexagramScores = func() [64]float64 {
	var t [64]float64
	for i := range t {
		t[i] = 0.5
	}
	t[0] = 0.8  // 坤
	t[1] = 0.2  // 剥
	t[63] = 0.9 // 既济
	return t
}()

// castLines derives six lines from the six least significant seed bytes using
// a three-coin cast per line.
func castLines(seed string) ([lineCast]int, error) {
	var lines [lineCast]int
	if seed == "" {
		return lines, ErrMalformedSeed
	}
	if len(seed)%2 == 1 {
		seed = "0" + seed
	}
	raw, err := hex.DecodeString(seed)
	if err != nil {
		return lines, fmt.Errorf("%w: %v", ErrMalformedSeed, err)
	}

	coin := func(v int) int {
		if v%2 == 0 {
			return 2
		}
		return 3
	}
	for i := range lines {
		r := 0
		if i < len(raw) {
			r = int(raw[len(raw)-1-i])
		}
		lines[i] = coin(r%4+5) + coin((r>>2)%4+5) + coin((r>>4)%4+5)
	}
	return lines, nil
}

func hexagramIndex(lines [lineCast]int, bit func(line int) int) int {
	idx := 0
	for _, l := range lines {
		idx = idx<<1 | bit(l)
	}
	return idx
}

// Oracle casts a hexagram from the seed. It does not depend on the candidate.
type Oracle struct{}

func (Oracle) Slot() slot.Slot { return slot.Oracle }

func (Oracle) Score(b *bundle.Bundle, _ *candidate.Profile) (float64, error) {
	lines, err := castLines(b.RandomSeed)
	if err != nil {
		return 0, err
	}

	primary := hexagramIndex(lines, func(l int) int { return l % 2 })

	changing := false
	for _, l := range lines {
		if l == oldYin || l == oldYang {
			changing = true
			break
		}
	}
	if !changing {
		return hexagramScores[primary] * 15, nil
	}

	secondary := hexagramIndex(lines, func(l int) int {
		switch l {
		case oldYin:
			return 1
		case oldYang:
			return 0
		}
		return l % 2
	})

	return (hexagramScores[primary]*0.6 + hexagramScores[secondary]*0.4) * 15, nil
}
