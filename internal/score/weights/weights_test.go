package weights

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

func TestDefaultPresetsSumToOne(t *testing.T) {
	s := DefaultScheduler()

	for _, reroll := range []bool{false, true} {
		w := s.Weights(reroll)
		assert.InDelta(t, 1.0, w.Sum(), 1e-12)
		for _, sl := range slot.All() {
			assert.Greater(t, w[sl], 0.0)
		}
	}
	assert.InDelta(t, 0.40, s.Weights(true)[slot.Behavioral], 1e-12)
	assert.InDelta(t, 0.15, s.Weights(false)[slot.Elemental], 1e-12)
}

func TestNewSchedulerNormalizes(t *testing.T) {
	var even slot.Vector
	for i := range even {
		even[i] = 2
	}
	s, err := NewScheduler(even, DefaultReroll)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, s.Weights(false)[slot.Card], 1e-12)
}

func TestNewSchedulerRejects(t *testing.T) {
	negative := DefaultStandard
	negative[slot.Oracle] = -0.1
	_, err := NewScheduler(negative, DefaultReroll)
	assert.Error(t, err)

	_, err = NewScheduler(DefaultStandard, slot.Vector{})
	assert.Error(t, err)
}

func TestParseOverrides(t *testing.T) {
	s, err := Parse([]byte(`
reroll:
  behavioral: 0.5
  card: 0.0
`))
	require.NoError(t, err)

	w := s.Weights(true)
	assert.InDelta(t, 1.0, w.Sum(), 1e-12)
	assert.Zero(t, w[slot.Card])
	assert.Greater(t, w[slot.Behavioral], 0.4)
	assert.Equal(t, DefaultScheduler().Weights(false), s.Weights(false))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown preset", "weekend:\n  card: 1\n"},
		{"unknown slot", "standard:\n  astrology: 1\n"},
		{"negative", "standard:\n  card: -1\n"},
		{"malformed", "standard: [1, 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte("standard:\n  oracle: 0.2\n"), 0o600))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Greater(t, s.Weights(false)[slot.Oracle], DefaultScheduler().Weights(false)[slot.Oracle])

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
