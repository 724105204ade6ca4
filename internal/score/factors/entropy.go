package factors

import (
	"math"
	"math/bits"
	"sort"
	"unicode/utf16"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

// Lorenz system parameters and integration settings.
const (
	lorenzSigma = 10
	lorenzRho   = 28
	lorenzBeta  = 8.0 / 3
	lorenzDt    = 0.01
	lorenzSteps = 100
)

// seedEntropy is the Shannon entropy of the seed's character distribution
// divided by 4 and capped at 1. Hex seeds top out at exactly 1.
func seedEntropy(seed string) float64 {
	runes := []rune(seed)
	if len(runes) == 0 {
		return 0
	}
	freq := make(map[rune]int)
	for _, r := range runes {
		freq[r]++
	}
	keys := make([]rune, 0, len(freq))
	for r := range freq {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	entropy := 0.0
	n := float64(len(runes))
	for _, r := range keys {
		p := float64(freq[r]) / n
		entropy -= p * math.Log2(p)
	}
	return math.Min(entropy/4, 1)
}

// lorenzChaos integrates the Lorenz system from a start point nudged by the
// sub-second part of ts and returns the terminal z mapped to [0,1].
func lorenzChaos(ts int64) float64 {
	x, y, z := 0.1, 0.0, 0.0
	x += (float64(ts%1000) / 1000) * 0.01

	for i := 0; i < lorenzSteps; i++ {
		dx := lorenzSigma * (y - x)
		dy := x*(lorenzRho-z) - y
		dz := x*y - lorenzBeta*z
		x += dx * lorenzDt
		y += dy * lorenzDt
		z += dz * lorenzDt
	}
	return slot.Normalize(z, 0, 50, 0, 1)
}

// stringHash is the 31-multiplier rolling hash over UTF-16 code units with
// 32-bit wraparound, returned as its absolute value.
func stringHash(s string) int64 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

func hashResonance(name, seed string) float64 {
	x := int64(int32(uint32(stringHash(name)) ^ uint32(stringHash(seed))))
	if x < 0 {
		x = -x
	}
	return 1 - float64(bits.OnesCount64(uint64(x)))/32
}

// movementEnergy blends high and low frequency energy of the pointer trace,
// favouring high frequency.
func movementEnergy(e float64) float64 {
	return e*e*0.7 + (1-e)*(1-e)*0.3
}

// Entropy mixes seed randomness, deterministic chaos and pointer jitter.
type Entropy struct{}

func (Entropy) Slot() slot.Slot { return slot.Entropy }

func (Entropy) Score(b *bundle.Bundle, c *candidate.Profile) (float64, error) {
	if c == nil {
		return 0, ErrMalformedProfile
	}
	if b.RandomSeed == "" {
		return 0, ErrMalformedSeed
	}

	final := seedEntropy(b.RandomSeed)*0.2 +
		lorenzChaos(b.Timestamp)*0.25 +
		hashResonance(c.Name, b.RandomSeed)*0.2 +
		movementEnergy(b.MouseEntropy)*0.2 +
		b.MouseEntropy*0.15
	return slot.Normalize(final, 0, 1, 0, 20), nil
}
