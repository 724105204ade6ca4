// Package ranking runs a full ranking pass: every candidate is scored in
// parallel, aggregated, sorted and ranked.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/bonus"
	"github.com/sawpanic/vibeoracle/internal/score/composite"
	"github.com/sawpanic/vibeoracle/internal/score/factors"
	"github.com/sawpanic/vibeoracle/internal/score/resonance"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
	"github.com/sawpanic/vibeoracle/internal/score/weights"
)

// DefaultParallelism bounds the per-candidate fan-out.
const DefaultParallelism = 8

// Breakdown explains how a final score was reached.
type Breakdown struct {
	Raw        slot.Vector     `json:"raw"`
	Base       float64         `json:"base"`
	Bonus      bonus.Breakdown `json:"bonus"`
	Multiplier float64         `json:"multiplier"`
	Failed     []string        `json:"failed,omitempty"`
}

// Result is one ranked candidate.
type Result struct {
	Candidate string    `json:"candidate"`
	Model     string    `json:"model"`
	Score     float64   `json:"score"`
	Rank      int       `json:"rank"`
	Breakdown Breakdown `json:"breakdown"`
}

// Pass is the ordered outcome of one ranking pass.
type Pass struct {
	ID          string        `json:"id"`
	Reroll      bool          `json:"reroll"`
	HourLabel   string        `json:"hour_label"`
	SolarTerm   string        `json:"solar_term"`
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    time.Duration `json:"duration_ns"`
	Results     []Result      `json:"results"`
}

// Top returns the first n results.
func (p *Pass) Top(n int) []Result {
	if n > len(p.Results) {
		n = len(p.Results)
	}
	return p.Results[:n]
}

// Observer receives pass-level measurements.
type Observer interface {
	ObservePass(reroll bool, d time.Duration)
	AlgorithmFailed(s slot.Slot)
	ObserveMultiplier(m float64)
}

type nopObserver struct{}

func (nopObserver) ObservePass(bool, time.Duration) {}
func (nopObserver) AlgorithmFailed(slot.Slot)       {}
func (nopObserver) ObserveMultiplier(float64)       {}

// Engine scores the registry against a bundle. It holds no per-pass state and
// is safe to share between sessions.
type Engine struct {
	registry    *candidate.Registry
	algorithms  factors.Set
	weights     *weights.Scheduler
	bonus       *bonus.Rules
	resonance   *resonance.Engine
	observer    Observer
	parallelism int
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithWeights(s *weights.Scheduler) Option {
	return func(e *Engine) { e.weights = s }
}

func WithBonusRules(r *bonus.Rules) Option {
	return func(e *Engine) { e.bonus = r }
}

func WithAlgorithms(set factors.Set) Option {
	return func(e *Engine) { e.algorithms = set }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine over the registry with default weights, bonus
// rules and algorithms unless overridden.
func NewEngine(registry *candidate.Registry, founders *candidate.FounderTable, opts ...Option) *Engine {
	e := &Engine{
		registry:    registry,
		algorithms:  factors.Default(founders),
		weights:     weights.DefaultScheduler(),
		bonus:       bonus.DefaultRules(),
		resonance:   resonance.New(),
		observer:    nopObserver{},
		parallelism: DefaultParallelism,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the candidates the engine ranks.
func (e *Engine) Registry() *candidate.Registry {
	return e.registry
}

// Score runs one ranking pass. The bundle must already carry hover history
// for reroll passes; Score itself never reads session state.
func (e *Engine) Score(ctx context.Context, b *bundle.Bundle, reroll bool) (*Pass, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ranking pass cancelled: %w", err)
	}

	start := e.now()
	w := e.weights.Weights(reroll)
	results := make([]Result, e.registry.Len())

	p := pool.New().WithMaxGoroutines(e.parallelism)
	for i := 0; i < e.registry.Len(); i++ {
		i := i
		c := e.registry.At(i)
		p.Go(func() {
			results[i] = e.scoreCandidate(b, c, w)
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ranking pass cancelled: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Rank = i + 1
	}

	duration := e.now().Sub(start)
	e.observer.ObservePass(reroll, duration)

	pass := &Pass{
		ID:          uuid.New().String(),
		Reroll:      reroll,
		HourLabel:   b.HourLabel,
		SolarTerm:   b.SolarTerm,
		GeneratedAt: start,
		Duration:    duration,
		Results:     results,
	}

	log.Debug().
		Str("pass", pass.ID).
		Bool("reroll", reroll).
		Str("label", b.HourLabel).
		Dur("duration", duration).
		Str("top", results[0].Candidate).
		Msg("Ranking pass complete")

	return pass, nil
}

func (e *Engine) scoreCandidate(b *bundle.Bundle, c *candidate.Profile, w slot.Vector) Result {
	raw, failures := e.algorithms.Evaluate(b, c)

	var failed []string
	for _, f := range failures {
		e.observer.AlgorithmFailed(f.Slot)
		failed = append(failed, f.Slot.Name())
		log.Warn().
			Str("algorithm", f.Slot.Name()).
			Str("candidate", c.Name).
			Err(f.Err).
			Msg("Algorithm failed, substituting neutral score")
	}

	mult := e.resonance.Multiplier(raw)
	e.observer.ObserveMultiplier(mult)

	s := composite.Aggregate(raw, w, e.bonus.Apply(b, c.Name), mult)
	return Result{
		Candidate: c.Name,
		Model:     c.Model,
		Score:     s.Final,
		Breakdown: Breakdown{
			Raw:        raw,
			Base:       s.Base,
			Bonus:      s.Bonus,
			Multiplier: s.Multiplier,
			Failed:     failed,
		},
	}
}
