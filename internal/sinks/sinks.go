// Package sinks delivers completed passes to history, event and other
// downstream consumers without ever failing the pass itself.
package sinks

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/sourcegraph/conc/pool"

	"github.com/sawpanic/vibeoracle/internal/metrics"
	"github.com/sawpanic/vibeoracle/internal/persistence"
)

// Sink receives completed passes.
type Sink interface {
	Name() string
	Record(ctx context.Context, rec persistence.PassRecord) error
}

// BreakerConfig tunes the circuit breaker around each sink.
type BreakerConfig struct {
	MaxRequests         uint32        `yaml:"max_requests"`
	Interval            time.Duration `yaml:"interval"`
	Timeout             time.Duration `yaml:"timeout"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
}

// DefaultBreakerConfig opens after five consecutive failures and probes again
// after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Guarded wraps a sink in a circuit breaker so an unavailable backend is
// skipped quickly instead of slowing every pass.
type Guarded struct {
	sink Sink
	cb   *gobreaker.CircuitBreaker
}

// Guard wraps s. m may be nil.
func Guard(s Sink, cfg BreakerConfig, m *metrics.Registry) *Guarded {
	settings := gobreaker.Settings{
		Name:        s.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("sink", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Sink circuit breaker state changed")
			if m != nil {
				m.SetBreakerState(name, int(to))
			}
		},
	}
	return &Guarded{sink: s, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (g *Guarded) Name() string {
	return g.sink.Name()
}

func (g *Guarded) Record(ctx context.Context, rec persistence.PassRecord) error {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.sink.Record(ctx, rec)
	})
	return err
}

// State reports the breaker state.
func (g *Guarded) State() gobreaker.State {
	return g.cb.State()
}

// Fanout records a pass to every sink concurrently and logs failures.
type Fanout struct {
	sinks   []Sink
	metrics *metrics.Registry
	timeout time.Duration
}

// NewFanout delivers to sinks with a per-delivery timeout. m may be nil.
func NewFanout(m *metrics.Registry, timeout time.Duration, sinks ...Sink) *Fanout {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fanout{sinks: sinks, metrics: m, timeout: timeout}
}

// Len returns the number of sinks.
func (f *Fanout) Len() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}

// Record delivers rec and returns the number of failed sinks.
func (f *Fanout) Record(ctx context.Context, rec persistence.PassRecord) int {
	if f.Len() == 0 {
		return 0
	}

	failed := make([]bool, len(f.sinks))
	p := pool.New()
	for i, s := range f.sinks {
		i, s := i, s
		p.Go(func() {
			failed[i] = !f.deliver(ctx, s, rec)
		})
	}
	p.Wait()

	n := 0
	for _, bad := range failed {
		if bad {
			n++
		}
	}
	return n
}

func (f *Fanout) deliver(ctx context.Context, s Sink, rec persistence.PassRecord) bool {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var timer *metrics.SinkTimer
	if f.metrics != nil {
		timer = f.metrics.StartSinkTimer(s.Name())
	}

	err := s.Record(ctx, rec)
	if err == nil {
		if timer != nil {
			timer.Stop("success")
		}
		return true
	}

	if timer != nil {
		timer.Stop("error")
		f.metrics.RecordSinkFailure(s.Name())
	}
	log.Warn().
		Str("sink", s.Name()).
		Str("pass", rec.ID).
		Err(err).
		Msg("Failed to record pass")
	return false
}

// History stores passes in a PassRepo.
type History struct {
	Repo persistence.PassRepo
}

func (History) Name() string { return "history" }

func (h History) Record(ctx context.Context, rec persistence.PassRecord) error {
	return h.Repo.Record(ctx, rec)
}
