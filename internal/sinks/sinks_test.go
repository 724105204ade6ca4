package sinks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeoracle/internal/metrics"
	"github.com/sawpanic/vibeoracle/internal/persistence"
)

type fakeSink struct {
	name string
	err  error

	mu    sync.Mutex
	calls int
	last  persistence.PassRecord
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Record(_ context.Context, rec persistence.PassRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = rec
	return s.err
}

func (s *fakeSink) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	ok := &fakeSink{name: "ok"}
	bad := &fakeSink{name: "bad", err: errors.New("unreachable")}
	m := metrics.NewRegistry()

	f := NewFanout(m, time.Second, ok, bad)
	failed := f.Record(context.Background(), persistence.PassRecord{ID: "p-1"})

	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, ok.Calls())
	assert.Equal(t, 1, bad.Calls())
	assert.Equal(t, "p-1", ok.last.ID)
	assert.Equal(t, 2, f.Len())
}

func TestFanoutWithoutSinks(t *testing.T) {
	var f *Fanout
	assert.Zero(t, f.Record(context.Background(), persistence.PassRecord{}))
	assert.Zero(t, NewFanout(nil, 0).Record(context.Background(), persistence.PassRecord{}))
}

func TestGuardedOpensAfterConsecutiveFailures(t *testing.T) {
	bad := &fakeSink{name: "events", err: errors.New("broker down")}
	cfg := BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Hour, ConsecutiveFailures: 3}
	g := Guard(bad, cfg, metrics.NewRegistry())

	for i := 0; i < 3; i++ {
		err := g.Record(context.Background(), persistence.PassRecord{})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	err := g.Record(context.Background(), persistence.PassRecord{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, bad.Calls())
	assert.Equal(t, "events", g.Name())
}

func TestGuardedPassesThroughSuccess(t *testing.T) {
	ok := &fakeSink{name: "history"}
	g := Guard(ok, DefaultBreakerConfig(), nil)

	require.NoError(t, g.Record(context.Background(), persistence.PassRecord{ID: "p-2"}))
	assert.Equal(t, gobreaker.StateClosed, g.State())
	assert.Equal(t, "p-2", ok.last.ID)
}

type memoryRepo struct {
	persistence.PassRepo
	recorded []persistence.PassRecord
}

func (r *memoryRepo) Record(_ context.Context, rec persistence.PassRecord) error {
	r.recorded = append(r.recorded, rec)
	return nil
}

func TestHistorySink(t *testing.T) {
	repo := &memoryRepo{}
	h := History{Repo: repo}

	require.NoError(t, h.Record(context.Background(), persistence.PassRecord{ID: "p-3"}))
	assert.Equal(t, "history", h.Name())
	require.Len(t, repo.recorded, 1)
}
