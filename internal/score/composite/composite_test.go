package composite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/vibeoracle/internal/score/bonus"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
	"github.com/sawpanic/vibeoracle/internal/score/weights"
)

func TestAggregateEquinoxOpenAI(t *testing.T) {
	raw := slot.Vector{12.966667, 7.101902, 12.222222, 8.996114, 7.640824, 15.076854, 12.8125, 12.9, 8, 0}
	w := weights.DefaultScheduler().Weights(false)

	got := Aggregate(raw, w, bonus.Breakdown{Hour: 5, Season: 2.5}, 1.2)
	assert.InDelta(t, 76.251935, got.Unrounded, 1e-4)
	assert.Equal(t, 76.25, got.Final)
	assert.Equal(t, 1.2, got.Multiplier)
	assert.InDelta(t, 76.251935/1.2-7.5, got.Base, 1e-4)
}

func TestAggregateClamps(t *testing.T) {
	w := weights.DefaultScheduler().Weights(false)
	full := slot.Vector{20, 20, 20, 20, 20, 20, 20, 15, 10, 10}

	high := Aggregate(full, w, bonus.Breakdown{Hour: 5, Season: 3.2, Moon: 2.5}, 1.2)
	assert.Equal(t, MaxScore, high.Final)
	assert.Greater(t, high.Unrounded, MaxScore)

	low := Aggregate(slot.Vector{}, w, bonus.Breakdown{}, 0.8)
	assert.Equal(t, MinScore, low.Final)
}

func TestRound(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{61.734, 61.73},
		{61.735, 61.74},
		{0.005, 0.01},
		{99.999, 100},
		{42, 42},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in), "%v", tt.in)
	}
}

func TestRoundUsesShortestDecimalForm(t *testing.T) {
	// Every input is stored just short of its printed half in magnitude.
	tests := []struct {
		in, want float64
	}{
		{1.005, 1.01},
		{61.735, 61.74},
		{2.675, 2.68},
		{-1.005, -1.01},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in), "%v", tt.in)
	}
}
