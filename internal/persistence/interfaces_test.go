package persistence

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/ranking"
	"github.com/sawpanic/vibeoracle/internal/score/bonus"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

func TestTimeRangeValid(t *testing.T) {
	from := time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		tr    TimeRange
		valid bool
	}{
		{"forward", TimeRange{From: from, To: from.Add(time.Hour)}, true},
		{"empty", TimeRange{From: from, To: from}, false},
		{"backwards", TimeRange{From: from, To: from.Add(-time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.tr.Valid())
		})
	}
}

func TestNewPassRecord(t *testing.T) {
	at := time.Date(2025, 3, 20, 10, 30, 0, 0, time.UTC)
	pass := &ranking.Pass{
		ID:          "p-1",
		Reroll:      true,
		HourLabel:   "巳",
		SolarTerm:   "春分",
		GeneratedAt: at,
		Duration:    3 * time.Millisecond,
		Results: []ranking.Result{
			{Candidate: "OpenAI", Score: 84.82, Rank: 1, Breakdown: ranking.Breakdown{
				Raw:        slot.Vector{1, 2, 3},
				Base:       60,
				Bonus:      bonus.Breakdown{Hour: 5, Season: 2.5},
				Multiplier: 1.2,
			}},
			{Candidate: "xAI", Score: 61.91, Rank: 2},
		},
	}
	b := &bundle.Bundle{RandomSeed: strings.Repeat("a", 64), OS: "Linux"}

	rec := NewPassRecord("s-1", b, pass)
	assert.Equal(t, "p-1", rec.ID)
	assert.Equal(t, "s-1", rec.SessionID)
	assert.True(t, rec.Reroll)
	assert.Equal(t, "Linux", rec.OS)
	assert.Equal(t, int64(3), rec.DurationMS)
	assert.Equal(t, at, rec.GeneratedAt())
	require.Len(t, rec.Results, 2)

	top := rec.Results[0]
	assert.Equal(t, "p-1", top.PassID)
	assert.Equal(t, 7.5, top.Bonus)
	assert.Equal(t, 1.2, top.Multiplier)

	var raw slot.Vector
	require.NoError(t, json.Unmarshal([]byte(top.Raw), &raw))
	assert.Equal(t, 2.0, raw[slot.Celestial])
}
