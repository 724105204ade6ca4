// Package weights schedules the per-slot weight vector for a ranking pass.
package weights

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

// Preset names used in weight files.
const (
	PresetStandard = "standard"
	PresetReroll   = "reroll"
)

// DefaultStandard favours the calendar and celestial slots.
var DefaultStandard = slot.Vector{0.15, 0.13, 0.11, 0.10, 0.12, 0.11, 0.08, 0.08, 0.07, 0.05}

// DefaultReroll shifts weight onto behaviour, which carries hover history on
// reroll passes.
var DefaultReroll = slot.Vector{0.10, 0.08, 0.07, 0.06, 0.10, 0.08, 0.40, 0.04, 0.04, 0.03}

// Scheduler hands out normalized weight vectors. It is immutable.
type Scheduler struct {
	standard slot.Vector
	reroll   slot.Vector
}

// NewScheduler validates both presets and stores them normalized to sum 1.
func NewScheduler(standard, reroll slot.Vector) (*Scheduler, error) {
	if err := validate(PresetStandard, standard); err != nil {
		return nil, err
	}
	if err := validate(PresetReroll, reroll); err != nil {
		return nil, err
	}
	return &Scheduler{
		standard: standard.Normalized(),
		reroll:   reroll.Normalized(),
	}, nil
}

// DefaultScheduler uses the built-in presets.
func DefaultScheduler() *Scheduler {
	s, err := NewScheduler(DefaultStandard, DefaultReroll)
	if err != nil {
		panic(err)
	}
	return s
}

// Weights returns the weight vector for a pass.
func (s *Scheduler) Weights(reroll bool) slot.Vector {
	if reroll {
		return s.reroll
	}
	return s.standard
}

func validate(preset string, w slot.Vector) error {
	for _, sl := range slot.All() {
		if w[sl] < 0 {
			return fmt.Errorf("preset %s: negative weight for %s: %f", preset, sl, w[sl])
		}
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("preset %s: weights sum to zero", preset)
	}
	return nil
}

// File is the YAML layout of a weights override file. Slots missing from a
// preset keep their default weight.
type File map[string]map[string]float64

// LoadFile reads weight overrides from a YAML file.
func LoadFile(path string) (*Scheduler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}
	return Parse(data)
}

// Parse builds a scheduler from YAML overrides layered over the defaults.
func Parse(data []byte) (*Scheduler, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse weights file: %w", err)
	}

	standard, reroll := DefaultStandard, DefaultReroll
	for preset, values := range f {
		var target *slot.Vector
		switch preset {
		case PresetStandard:
			target = &standard
		case PresetReroll:
			target = &reroll
		default:
			return nil, fmt.Errorf("unknown weight preset: %s", preset)
		}
		for name, v := range values {
			sl, err := slot.Parse(name)
			if err != nil {
				return nil, fmt.Errorf("preset %s: %w", preset, err)
			}
			target[sl] = v
		}
	}
	return NewScheduler(standard, reroll)
}
