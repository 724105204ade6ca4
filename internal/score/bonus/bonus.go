// Package bonus applies the additive hour, season and moon-phase bonuses.
package bonus

import (
	"github.com/sawpanic/vibeoracle/internal/calendar"
	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
)

// Breakdown is the bonus awarded to one candidate in one pass.
type Breakdown struct {
	Hour   float64 `json:"hour"`
	Season float64 `json:"season"`
	Moon   float64 `json:"moon"`
}

// Total sums the three components.
func (b Breakdown) Total() float64 {
	return b.Hour + b.Season + b.Moon
}

// Award grants Points to each named candidate.
type Award struct {
	Points     float64
	Candidates []string
}

func (a Award) For(name string) float64 {
	for _, c := range a.Candidates {
		if c == name {
			return a.Points
		}
	}
	return 0
}

// MoonWindow awards a bonus when the phase falls inside (Low, High), or when
// Wrap is set, outside [Low, High].
type MoonWindow struct {
	Low, High float64
	Wrap      bool
	Award     Award
}

func (w MoonWindow) contains(phase float64) bool {
	if w.Wrap {
		return phase > w.High || phase < w.Low
	}
	return phase > w.Low && phase < w.High
}

// Rules holds every bonus table. Rules are read-only once built.
type Rules struct {
	Hour   map[string]map[string]float64
	Season map[calendar.Season]Award
	// Moon windows are checked in order; the first match wins.
	Moon []MoonWindow
}

// DefaultRules returns the standard bonus tables.
func DefaultRules() *Rules {
	return &Rules{
		Hour: map[string]map[string]float64{
			"子": {"xAI": 5, "OpenAI": 4},
			"寅": {"月之暗面": 5},
			"卯": {"Google": 4.5},
			"巳": {"OpenAI": 5},
			"午": {"Meta": 4.8},
			"未": {"阿里巴巴": 5},
			"申": {"xAI": 4.8},
			"酉": {"Mistral AI": 5},
			"亥": {"xAI": 5},
		},
		Season: map[calendar.Season]Award{
			calendar.Spring: {Points: 2.5, Candidates: []string{"OpenAI", "xAI", "月之暗面"}},
			calendar.Summer: {Points: 2.8, Candidates: []string{"Meta", "字节跳动", "Google"}},
			calendar.Autumn: {Points: 3.0, Candidates: []string{"Google", "阿里巴巴", "Anthropic"}},
			calendar.Winter: {Points: 3.2, Candidates: []string{"深度求索", "Anthropic", "Mistral AI"}},
		},
		Moon: []MoonWindow{
			{Low: 0.05, High: 0.95, Wrap: true, Award: Award{Points: 2.0, Candidates: []string{"OpenAI", "xAI", "月之暗面"}}},
			{Low: 0.45, High: 0.55, Award: Award{Points: 2.5, Candidates: []string{"Google", "阿里巴巴", "Meta"}}},
		},
	}
}

// Apply computes the bonuses for candidate name under bundle b.
func (r *Rules) Apply(b *bundle.Bundle, name string) Breakdown {
	var out Breakdown
	out.Hour = r.Hour[b.HourLabel][name]

	if season, ok := calendar.SeasonOf(b.SolarTerm); ok {
		out.Season = r.Season[season].For(name)
	}

	for _, w := range r.Moon {
		if w.contains(b.MoonPhase) {
			out.Moon = w.Award.For(name)
			break
		}
	}
	return out
}
