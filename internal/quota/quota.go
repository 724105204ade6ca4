// Package quota tracks how many reroll passes remain per hour label.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultLimit is the number of rerolls allowed per label.
const DefaultLimit = 7

// ErrQuotaExhausted is returned when a reroll is requested with no quota left.
var ErrQuotaExhausted = errors.New("reroll quota exhausted")

// Store persists consumed counts by key.
type Store interface {
	Count(ctx context.Context, key string) (int, error)
	Increment(ctx context.Context, key string) (int, error)
}

// ScopeDeleter is implemented by stores that can drop a whole scope. Stores
// without it rely on their own expiry.
type ScopeDeleter interface {
	DeleteScope(ctx context.Context, scope string) (int, error)
}

// Quota enforces the per-label reroll limit. Counters are keyed by label and,
// when daily reset is enabled, by the calendar day as well.
type Quota struct {
	store Store
	limit int
	scope string
	daily bool
	loc   *time.Location
	now   func() time.Time
}

// Option configures a Quota.
type Option func(*Quota)

func WithLimit(n int) Option {
	return func(q *Quota) {
		if n >= 0 {
			q.limit = n
		}
	}
}

// WithScope prefixes every key, typically with a session id.
func WithScope(scope string) Option {
	return func(q *Quota) { q.scope = scope }
}

// WithDailyReset keys counters by the day in loc as well as the label.
func WithDailyReset(enabled bool, loc *time.Location) Option {
	return func(q *Quota) {
		q.daily = enabled
		if loc != nil {
			q.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(q *Quota) { q.now = now }
}

// New creates a quota over store.
func New(store Store, opts ...Option) *Quota {
	q := &Quota{
		store: store,
		limit: DefaultLimit,
		loc:   time.UTC,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Limit returns the configured per-label limit.
func (q *Quota) Limit() int {
	return q.limit
}

// Key returns the store key for label.
func (q *Quota) Key(label string) string {
	key := label
	if q.daily {
		key = q.now().In(q.loc).Format("2006-01-02") + "|" + label
	}
	if q.scope != "" {
		key = q.scope + ":" + key
	}
	return key
}

// Remaining returns the rerolls left for label, never below zero.
func (q *Quota) Remaining(ctx context.Context, label string) (int, error) {
	used, err := q.store.Count(ctx, q.Key(label))
	if err != nil {
		return 0, fmt.Errorf("failed to read quota for %s: %w", label, err)
	}
	if used >= q.limit {
		return 0, nil
	}
	return q.limit - used, nil
}

// Check fails with ErrQuotaExhausted when no reroll remains for label.
func (q *Quota) Check(ctx context.Context, label string) error {
	remaining, err := q.Remaining(ctx, label)
	if err != nil {
		return err
	}
	if remaining == 0 {
		log.Info().Str("label", label).Str("scope", q.scope).Int("limit", q.limit).Msg("Reroll quota exhausted")
		return fmt.Errorf("%w for label %s", ErrQuotaExhausted, label)
	}
	return nil
}

// Consume records one reroll for label and returns what remains.
func (q *Quota) Consume(ctx context.Context, label string) (int, error) {
	used, err := q.store.Increment(ctx, q.Key(label))
	if err != nil {
		return 0, fmt.Errorf("failed to consume quota for %s: %w", label, err)
	}
	if used >= q.limit {
		return 0, nil
	}
	return q.limit - used, nil
}

// Release drops the counters of this quota's scope when the store supports
// it. An unscoped quota is left alone.
func (q *Quota) Release(ctx context.Context) error {
	d, ok := q.store.(ScopeDeleter)
	if !ok || q.scope == "" {
		return nil
	}
	if _, err := d.DeleteScope(ctx, q.scope); err != nil {
		return fmt.Errorf("failed to release quota scope %s: %w", q.scope, err)
	}
	return nil
}
