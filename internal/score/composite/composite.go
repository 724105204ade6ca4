// Package composite folds a raw slot vector, weights, bonuses and the
// resonance multiplier into one final score.
package composite

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/sawpanic/vibeoracle/internal/score/bonus"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Score is the aggregated result for one candidate.
type Score struct {
	Base       float64         `json:"base"`
	Bonus      bonus.Breakdown `json:"bonus"`
	Multiplier float64         `json:"multiplier"`
	Unrounded  float64         `json:"-"`
	Final      float64         `json:"final"`
}

// Aggregate computes ((Σ raw/max · w) · 100 + bonuses) · multiplier, clamped to
// [0,100] and rounded to two decimals.
func Aggregate(raw, weights slot.Vector, b bonus.Breakdown, multiplier float64) Score {
	base := raw.Scaled().Dot(weights) * 100
	final := (base + b.Total()) * multiplier
	clamped := math.Max(MinScore, math.Min(MaxScore, final))

	return Score{
		Base:       base,
		Bonus:      b,
		Multiplier: multiplier,
		Unrounded:  final,
		Final:      Round(clamped),
	}
}

// Round rounds half away from zero to two decimals. It works on the shortest
// decimal form of v, so 1.005 rounds to 1.01 even though the nearest binary
// value sits just below 1.005.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
