// Package session ties the shared ranking engine to one requester's quota
// and hover state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/hover"
	"github.com/sawpanic/vibeoracle/internal/metrics"
	"github.com/sawpanic/vibeoracle/internal/persistence"
	"github.com/sawpanic/vibeoracle/internal/quota"
	"github.com/sawpanic/vibeoracle/internal/ranking"
	"github.com/sawpanic/vibeoracle/internal/sinks"
)

// Session owns the mutable per-requester state. Passes within a session are
// serialized; different sessions run independently.
type Session struct {
	id      string
	engine  *ranking.Engine
	quota   *quota.Quota
	hover   *hover.Tracker
	sinks   *sinks.Fanout
	metrics *metrics.Registry
	now     func() time.Time

	mu       sync.Mutex
	lastSeen atomic.Int64
}

// Option configures a Session.
type Option func(*Session)

func WithHoverTracker(t *hover.Tracker) Option {
	return func(s *Session) { s.hover = t }
}

// WithSinks delivers every completed pass to f.
func WithSinks(f *sinks.Fanout) Option {
	return func(s *Session) { s.sinks = f }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(s *Session) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session over the shared engine with its own quota.
func New(id string, engine *ranking.Engine, q *quota.Quota, opts ...Option) *Session {
	s := &Session{
		id:     id,
		engine: engine,
		quota:  q,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hover == nil {
		s.hover = hover.NewTrackerWithClock(s.now)
	}
	s.touch()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// LastSeen is the time of the most recent use.
func (s *Session) LastSeen() time.Time {
	return time.UnixMilli(s.lastSeen.Load())
}

func (s *Session) touch() {
	s.lastSeen.Store(s.now().UnixMilli())
}

// Rank runs one pass. A reroll checks the quota before any scoring, carries
// the hover totals into the bundle and consumes one unit afterwards. A
// standard pass leaves the quota alone, clears hover tracking and ignores any
// hover history on the bundle.
func (s *Session) Rank(ctx context.Context, b *bundle.Bundle, reroll bool) (*ranking.Pass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := b.Validate(); err != nil {
		return nil, err
	}

	input := b
	if reroll {
		if err := s.quota.Check(ctx, b.HourLabel); err != nil {
			if errors.Is(err, quota.ErrQuotaExhausted) && s.metrics != nil {
				s.metrics.RecordQuotaExhausted()
			}
			return nil, err
		}
		if len(b.HoverHistory) == 0 {
			input = b.WithHoverHistory(s.hover.Snapshot())
		}
	} else {
		s.hover.Reset()
		input = b.WithHoverHistory(nil)
	}

	pass, err := s.engine.Score(ctx, input, reroll)
	if err != nil {
		return nil, err
	}

	if reroll {
		if _, err := s.quota.Consume(ctx, b.HourLabel); err != nil {
			return nil, fmt.Errorf("pass %s completed but quota was not recorded: %w", pass.ID, err)
		}
		if s.metrics != nil {
			s.metrics.RecordReroll()
		}
	}

	s.sinks.Record(ctx, persistence.NewPassRecord(s.id, input, pass))
	return pass, nil
}

// RemainingRerolls reports the rerolls left for label.
func (s *Session) RemainingRerolls(ctx context.Context, label string) (int, error) {
	s.touch()
	return s.quota.Remaining(ctx, label)
}

// RerollLimit is the number of rerolls allowed per hour label.
func (s *Session) RerollLimit() int {
	return s.quota.Limit()
}

// Close releases the session's quota counters.
func (s *Session) Close(ctx context.Context) error {
	return s.quota.Release(ctx)
}

// ResetBehaviorTracking discards accumulated hover time.
func (s *Session) ResetBehaviorTracking() {
	s.touch()
	s.hover.Reset()
}

func (s *Session) StartHover(candidate string) {
	s.touch()
	s.hover.StartHover(candidate)
}

func (s *Session) EndHover(candidate string) {
	s.touch()
	s.hover.EndHover(candidate)
}

// HoverSnapshot returns the current hover totals in milliseconds.
func (s *Session) HoverSnapshot() map[string]int64 {
	return s.hover.Snapshot()
}
