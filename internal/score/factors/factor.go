// Package factors implements the ten sub-score algorithms. Every algorithm is
// a pure function of the context bundle and one candidate profile.
package factors

import (
	"errors"
	"fmt"
	"math"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

// Fallback replaces the score of any algorithm that fails.
const Fallback = 5.0

var (
	ErrMalformedSeed    = errors.New("malformed random seed")
	ErrMalformedProfile = errors.New("malformed candidate profile")
	ErrNonFinite        = errors.New("non-finite score")
)

// Algorithm scores one candidate for one slot.
type Algorithm interface {
	Slot() slot.Slot
	Score(b *bundle.Bundle, c *candidate.Profile) (float64, error)
}

// Failure records a substituted score.
type Failure struct {
	Slot slot.Slot
	Err  error
}

// Safe runs the algorithm and maps any failure (returned error, panic, NaN
// or Inf) to Fallback.
func Safe(a Algorithm, b *bundle.Bundle, c *candidate.Profile) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			score = Fallback
			err = fmt.Errorf("%s: panic: %v", a.Slot(), r)
		}
	}()

	v, err := a.Score(b, c)
	if err != nil {
		return Fallback, fmt.Errorf("%s: %w", a.Slot(), err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Fallback, fmt.Errorf("%s: %w", a.Slot(), ErrNonFinite)
	}
	return v, nil
}

// Set holds one algorithm per slot.
type Set [slot.Count]Algorithm

// Default returns the standard algorithms in slot order.
func Default(founders *candidate.FounderTable) Set {
	return Set{
		slot.Elemental:      Elemental{},
		slot.Celestial:      Celestial{},
		slot.Numeric:        Numeric{},
		slot.Spatial:        Spatial{},
		slot.Entropy:        Entropy{},
		slot.Founder:        FounderDestiny{Founders: founders},
		slot.Behavioral:     Behavioral{},
		slot.Oracle:         Oracle{},
		slot.Correspondence: Correspondence{},
		slot.Card:           Card{},
	}
}

// Evaluate scores every slot for one candidate, substituting Fallback for
// failures and reporting them.
func (s Set) Evaluate(b *bundle.Bundle, c *candidate.Profile) (slot.Vector, []Failure) {
	var (
		raw      slot.Vector
		failures []Failure
	)
	for i, alg := range s {
		if alg == nil {
			raw[i] = Fallback
			failures = append(failures, Failure{Slot: slot.Slot(i), Err: errors.New("no algorithm registered")})
			continue
		}
		v, err := Safe(alg, b, c)
		if err != nil {
			failures = append(failures, Failure{Slot: slot.Slot(i), Err: err})
		}
		raw[i] = v
	}
	return raw, failures
}

func requireFounded(c *candidate.Profile) error {
	if c == nil || c.FoundedYear <= 0 {
		return ErrMalformedProfile
	}
	return nil
}

// digitSum adds the decimal digits of a non-negative n.
func digitSum(n int) int {
	if n < 0 {
		n = -n
	}
	sum := 0
	for ; n > 0; n /= 10 {
		sum += n % 10
	}
	return sum
}
