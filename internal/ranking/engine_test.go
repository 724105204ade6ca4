package ranking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeoracle/internal/calendar"
	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/bonus"
	"github.com/sawpanic/vibeoracle/internal/score/factors"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

func equinoxBundle() *bundle.Bundle {
	at := time.Date(2025, time.March, 20, 10, 30, 0, 0, time.UTC)
	return &bundle.Bundle{
		Timestamp:      at.UnixMilli(),
		SolarTerm:      calendar.SolarTerm(at),
		LunarDate:      calendar.Lunar(at),
		HourLabel:      calendar.HourLabel(at.Hour()),
		Weekday:        int(at.Weekday()),
		MoonPhase:      calendar.MoonPhase(at),
		Longitude:      -74.0060,
		Latitude:       40.7128,
		Timezone:       "UTC",
		OS:             "macOS",
		ConnectionType: "unknown",
		RandomSeed:     strings.Repeat("0", bundle.SeedLength),
		MouseEntropy:   0.5,
		ClickCadence:   1,
	}
}

func newEngine(opts ...Option) *Engine {
	return NewEngine(candidate.DefaultRegistry(), candidate.DefaultFounders(), opts...)
}

type ranked struct {
	name  string
	score float64
}

func assertRanking(t *testing.T, want []ranked, pass *Pass) {
	t.Helper()
	require.Len(t, pass.Results, len(want))
	for i, w := range want {
		r := pass.Results[i]
		assert.Equal(t, w.name, r.Candidate, "rank %d", i+1)
		assert.Equal(t, w.score, r.Score, "rank %d %s", i+1, w.name)
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestScoreEquinoxGolden(t *testing.T) {
	pass, err := newEngine().Score(context.Background(), equinoxBundle(), false)
	require.NoError(t, err)

	assertRanking(t, []ranked{
		{"OpenAI", 76.25},
		{"xAI", 67.89},
		{"阿里巴巴", 66.86},
		{"Mistral AI", 66.04},
		{"Cohere", 65.49},
		{"Meta", 64.05},
		{"深度求索", 62.88},
		{"月之暗面", 62.86},
		{"智谱AI", 61.79},
		{"Google", 61.73},
		{"字节跳动", 59.45},
		{"Anthropic", 53.21},
	}, pass)

	assert.False(t, pass.Reroll)
	assert.Equal(t, "巳", pass.HourLabel)
	assert.Equal(t, "春分", pass.SolarTerm)
	assert.NotEmpty(t, pass.ID)

	top := pass.Results[0]
	assert.Equal(t, 5.0, top.Breakdown.Bonus.Hour)
	assert.Equal(t, 2.5, top.Breakdown.Bonus.Season)
	assert.Equal(t, 1.2, top.Breakdown.Multiplier)
	assert.Empty(t, top.Breakdown.Failed)
}

func TestScoreRerollGolden(t *testing.T) {
	b := equinoxBundle().WithHoverHistory(map[string]int64{"OpenAI": 3000, "Anthropic": 1000})

	pass, err := newEngine().Score(context.Background(), b, true)
	require.NoError(t, err)
	assert.True(t, pass.Reroll)

	assertRanking(t, []ranked{
		{"OpenAI", 84.82},
		{"xAI", 61.91},
		{"Mistral AI", 59.01},
		{"阿里巴巴", 58.86},
		{"Anthropic", 58.42},
		{"月之暗面", 58.07},
		{"Cohere", 57.65},
		{"Meta", 57.2},
		{"Google", 56.22},
		{"深度求索", 56.11},
		{"智谱AI", 55.4},
		{"字节跳动", 54},
	}, pass)
}

func TestScoreIsDeterministic(t *testing.T) {
	e := newEngine(WithParallelism(3))
	b := equinoxBundle()
	b.RandomSeed = strings.Repeat("9e3779b97f4a7c15", 4)

	first, err := e.Score(context.Background(), b, false)
	require.NoError(t, err)
	second, err := e.Score(context.Background(), b, false)
	require.NoError(t, err)

	require.Len(t, second.Results, len(first.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Candidate, second.Results[i].Candidate)
		assert.Equal(t, first.Results[i].Score, second.Results[i].Score)
		assert.Equal(t, first.Results[i].Breakdown.Raw, second.Results[i].Breakdown.Raw)
	}
	assert.NotEqual(t, first.ID, second.ID)
}

func TestScoreOrderingAndBounds(t *testing.T) {
	pass, err := newEngine().Score(context.Background(), equinoxBundle(), false)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i, r := range pass.Results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 100.0)
		assert.GreaterOrEqual(t, r.Breakdown.Multiplier, 0.8)
		assert.LessOrEqual(t, r.Breakdown.Multiplier, 1.2)
		if i > 0 {
			assert.GreaterOrEqual(t, pass.Results[i-1].Score, r.Score)
		}
		seen[r.Candidate] = true
	}
	assert.Len(t, seen, candidate.DefaultRegistry().Len())
	assert.Len(t, pass.Top(3), 3)
	assert.Len(t, pass.Top(99), 12)
}

type failing struct{ s slot.Slot }

func (f failing) Slot() slot.Slot { return f.s }

func (failing) Score(*bundle.Bundle, *candidate.Profile) (float64, error) {
	return 0, errors.New("provider offline")
}

type constant struct {
	s     slot.Slot
	score float64
}

func (c constant) Slot() slot.Slot { return c.s }

func (c constant) Score(*bundle.Bundle, *candidate.Profile) (float64, error) {
	return c.score, nil
}

func TestEqualScoresKeepRegistryOrder(t *testing.T) {
	var set factors.Set
	for _, s := range slot.All() {
		set[s] = constant{s: s, score: 7}
	}
	engine := newEngine(WithAlgorithms(set), WithBonusRules(&bonus.Rules{}), WithParallelism(4))
	names := candidate.DefaultRegistry().Names()

	for _, reroll := range []bool{false, true} {
		pass, err := engine.Score(context.Background(), equinoxBundle(), reroll)
		require.NoError(t, err)
		require.Len(t, pass.Results, len(names))

		first := pass.Results[0].Score
		for i, r := range pass.Results {
			assert.Equal(t, first, r.Score)
			assert.Equal(t, names[i], r.Candidate, "reroll=%v position %d", reroll, i)
			assert.Equal(t, i+1, r.Rank)
		}
	}
}

type countingObserver struct {
	mu          sync.Mutex
	passes      int
	failures    map[slot.Slot]int
	multipliers int
}

func (o *countingObserver) ObservePass(bool, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.passes++
}

func (o *countingObserver) AlgorithmFailed(s slot.Slot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failures == nil {
		o.failures = map[slot.Slot]int{}
	}
	o.failures[s]++
}

func (o *countingObserver) ObserveMultiplier(float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.multipliers++
}

func TestScoreSubstitutesFailedAlgorithms(t *testing.T) {
	set := factors.Default(candidate.DefaultFounders())
	set[slot.Celestial] = failing{slot.Celestial}
	obs := &countingObserver{}

	pass, err := newEngine(WithAlgorithms(set), WithObserver(obs)).Score(context.Background(), equinoxBundle(), false)
	require.NoError(t, err)

	for _, r := range pass.Results {
		assert.Equal(t, factors.Fallback, r.Breakdown.Raw[slot.Celestial])
		assert.Equal(t, []string{"celestial"}, r.Breakdown.Failed)
	}
	assert.Equal(t, 1, obs.passes)
	assert.Equal(t, 12, obs.failures[slot.Celestial])
	assert.Equal(t, 12, obs.multipliers)
}

func TestScoreRejectsInvalidBundle(t *testing.T) {
	b := equinoxBundle()
	b.HourLabel = "noon"

	_, err := newEngine().Score(context.Background(), b, false)
	assert.ErrorIs(t, err, bundle.ErrInvalidBundle)
}

func TestScoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine().Score(ctx, equinoxBundle(), false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreUsesClock(t *testing.T) {
	at := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	pass, err := newEngine(WithClock(func() time.Time { return at })).Score(context.Background(), equinoxBundle(), false)
	require.NoError(t, err)
	assert.Equal(t, at, pass.GeneratedAt)
	assert.Zero(t, pass.Duration)
}
