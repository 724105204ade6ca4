// Package slot enumerates the ten sub-score slots. Scores, weights and
// maxima are only ever associated through a Slot, never by position in an
// ad hoc container.
package slot

import (
	"encoding/json"
	"fmt"
)

// Slot identifies one sub-score algorithm.
type Slot int

const (
	Elemental Slot = iota
	Celestial
	Numeric
	Spatial
	Entropy
	Founder
	Behavioral
	Oracle
	Correspondence
	Card
)

// Count is the number of slots.
const Count = 10

var names = [Count]string{
	"elemental",
	"celestial",
	"numeric",
	"spatial",
	"entropy",
	"founder",
	"behavioral",
	"oracle",
	"correspondence",
	"card",
}

var maxima = [Count]float64{20, 20, 20, 20, 20, 20, 20, 15, 10, 10}

// All returns every slot in canonical order.
func All() []Slot {
	out := make([]Slot, Count)
	for i := range out {
		out[i] = Slot(i)
	}
	return out
}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	return s >= 0 && s < Count
}

// Name returns the stable identifier used in config files, logs and metrics.
func (s Slot) Name() string {
	if !s.Valid() {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return names[s]
}

func (s Slot) String() string {
	return s.Name()
}

// Max is the documented upper bound of the slot's raw score.
func (s Slot) Max() float64 {
	return maxima[s]
}

// Parse resolves a slot name.
func Parse(name string) (Slot, error) {
	for i, n := range names {
		if n == name {
			return Slot(i), nil
		}
	}
	return 0, fmt.Errorf("unknown score slot %q", name)
}

// Vector holds one value per slot.
type Vector [Count]float64

// Sum adds the values in slot order.
func (v Vector) Sum() float64 {
	total := 0.0
	for _, x := range v {
		total += x
	}
	return total
}

// Normalized divides every value by the vector's sum. A zero sum yields the
// zero vector.
func (v Vector) Normalized() Vector {
	sum := v.Sum()
	var out Vector
	if sum == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}

// Scaled divides each value by its slot maximum, mapping raw scores to [0,1].
func (v Vector) Scaled() Vector {
	var out Vector
	for i, x := range v {
		out[i] = x / maxima[i]
	}
	return out
}

// Dot is the inner product accumulated in slot order.
func (v Vector) Dot(o Vector) float64 {
	acc := 0.0
	for i := range v {
		acc += v[i] * o[i]
	}
	return acc
}

// Map keys the values by slot name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, Count)
	for i, x := range v {
		out[names[i]] = x
	}
	return out
}

// MarshalJSON renders the vector as an object keyed by slot name.
func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Map())
}

// UnmarshalJSON accepts the object form produced by MarshalJSON.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Vector
	for name, x := range m {
		s, err := Parse(name)
		if err != nil {
			return err
		}
		out[s] = x
	}
	*v = out
	return nil
}
