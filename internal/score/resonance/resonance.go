// Package resonance derives the cross-slot resonance multiplier from the
// principal eigenvector of a fixed interaction matrix.
package resonance

import (
	"math"

	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

// Iterations is the fixed number of power-iteration steps.
const Iterations = 20

const (
	MinMultiplier = 0.8
	MaxMultiplier = 1.2
)

// matrix is symmetric with a unit diagonal, rows and columns in slot order.
var matrix = [slot.Count]slot.Vector{
	{1.0, 0.5, 0.3, 0.6, 0.2, 0.4, 0.1, 0.7, 0.4, 0.3},
	{0.5, 1.0, 0.6, 0.4, 0.3, 0.5, 0.2, 0.3, 0.7, 0.5},
	{0.3, 0.6, 1.0, 0.2, 0.5, 0.6, 0.4, 0.4, 0.8, 0.7},
	{0.6, 0.4, 0.2, 1.0, 0.3, 0.5, 0.1, 0.8, 0.2, 0.1},
	{0.2, 0.3, 0.5, 0.3, 1.0, 0.4, 0.8, 0.5, 0.6, 0.9},
	{0.4, 0.5, 0.6, 0.5, 0.4, 1.0, 0.7, 0.3, 0.6, 0.5},
	{0.1, 0.2, 0.4, 0.1, 0.8, 0.7, 1.0, 0.2, 0.5, 0.8},
	{0.7, 0.3, 0.4, 0.8, 0.5, 0.3, 0.2, 1.0, 0.4, 0.3},
	{0.4, 0.7, 0.8, 0.2, 0.6, 0.6, 0.5, 0.4, 1.0, 0.8},
	{0.3, 0.5, 0.7, 0.1, 0.9, 0.5, 0.8, 0.3, 0.8, 1.0},
}

// Engine holds the precomputed eigenvector. It is immutable after New.
type Engine struct {
	eigen slot.Vector
}

// New runs the power iteration from the all-ones vector.
func New() *Engine {
	var v slot.Vector
	for i := range v {
		v[i] = 1
	}

	for it := 0; it < Iterations; it++ {
		var next slot.Vector
		for i, row := range matrix {
			next[i] = row.Dot(v)
		}
		norm := math.Sqrt(next.Dot(next))
		for i := range next {
			next[i] /= norm
		}
		v = next
	}
	return &Engine{eigen: v}
}

// Eigenvector returns a copy of the unit-length principal eigenvector.
func (e *Engine) Eigenvector() slot.Vector {
	return e.eigen
}

// Multiplier maps the scaled raw vector's projection onto the eigenvector
// into [MinMultiplier, MaxMultiplier].
func (e *Engine) Multiplier(raw slot.Vector) float64 {
	return slot.Normalize(raw.Scaled().Dot(e.eigen), 0, 1, MinMultiplier, MaxMultiplier)
}
