package factors

import (
	"math"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

const defaultHabitAlignment = 0.80

var habitAlignment = map[string]map[string]float64{
	"macOS": {
		"OpenAI": 0.95, "Anthropic": 0.93, "Google": 0.85, "Meta": 0.80,
		"xAI": 0.90, "Mistral AI": 0.88, "Cohere": 0.82, "月之暗面": 0.88,
	},
	"Windows": {
		"OpenAI": 0.90, "Google": 0.92, "Meta": 0.88, "Cohere": 0.85,
		"深度求索": 0.88, "智谱AI": 0.90, "阿里巴巴": 0.92, "字节跳动": 0.94,
	},
	"Linux": {
		"Meta": 0.98, "Mistral AI": 0.95, "Cohere": 0.92, "深度求索": 0.96,
		"xAI": 0.90, "Google": 0.85, "智谱AI": 0.93,
	},
	"iOS":     {"字节跳动": 0.95, "Meta": 0.92, "Google": 0.90, "OpenAI": 0.88},
	"Android": {"Google": 0.98, "字节跳动": 0.96, "阿里巴巴": 0.93, "Meta": 0.91},
}

func cadenceTier(cadence float64) float64 {
	switch {
	case cadence > 2:
		return 0.7
	case cadence > 0.5:
		return 1.0
	}
	return 0.85
}

// hoverShare is the candidate's share of total hover time raised to 0.7, or
// 0.5 when there is no hover history to go on.
func hoverShare(history map[string]int64, name string) float64 {
	if len(history) == 0 {
		return 0.5
	}
	var total int64
	for _, ms := range history {
		total += ms
	}
	if total <= 0 {
		return 0.5
	}
	return math.Pow(float64(history[name])/float64(total), 0.7)
}

// Behavioral reads the requester's interaction signals. Hover totals arrive
// through the bundle; the algorithm keeps no state of its own.
type Behavioral struct{}

func (Behavioral) Slot() slot.Slot { return slot.Behavioral }

func (Behavioral) Score(b *bundle.Bundle, c *candidate.Profile) (float64, error) {
	if c == nil {
		return 0, ErrMalformedProfile
	}

	intention := 1 / (1 + math.Exp(-10*(b.MouseEntropy-0.5)))

	habit, ok := habitAlignment[b.OS][c.Name]
	if !ok {
		habit = defaultHabitAlignment
	}

	final := intention*0.25 + cadenceTier(b.ClickCadence)*0.20 + hoverShare(b.HoverHistory, c.Name)*0.30 + habit*0.25
	return slot.Normalize(final, 0.2, 1, 0, 20), nil
}
