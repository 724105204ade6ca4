package factors

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

const (
	deckSize    = 78
	majorArcana = 22
	suitSize    = 14
)

// Wands, Cups, Swords, Pentacles.
var suitModifiers = [4]float64{0.9, 1.0, 0.8, 1.1}

func cardScore(card int) float64 {
	if card < majorArcana {
		return (1 - math.Abs(10.5-float64(card))/10.5) * 1.2
	}
	suit := (card - majorArcana) / suitSize
	rank := (card-majorArcana)%suitSize + 1
	return (float64(rank) / suitSize) * suitModifiers[suit]
}

// Card draws past, present and future cards from the seed's last 32 bits. It
// does not depend on the candidate.
type Card struct{}

func (Card) Slot() slot.Slot { return slot.Card }

func (Card) Score(b *bundle.Bundle, _ *candidate.Profile) (float64, error) {
	seed := b.RandomSeed
	if len(seed) < 8 {
		return 0, ErrMalformedSeed
	}
	v, err := strconv.ParseUint(seed[len(seed)-8:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedSeed, err)
	}
	s := uint32(v)

	past := cardScore(int(s % deckSize))
	present := cardScore(int((s >> 8) % deckSize))
	future := cardScore(int((s >> 16) % deckSize))

	score := (past*0.2 + present*0.5 + future*0.3) * 10
	return math.Max(0, math.Min(10, score)), nil
}
