package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/metrics"
	"github.com/sawpanic/vibeoracle/internal/quota"
	"github.com/sawpanic/vibeoracle/internal/ranking"
)

func newTestManager(c *clock, ttl time.Duration) *Manager {
	m, _ := newTestManagerWithStore(c, ttl)
	return m
}

func newTestManagerWithStore(c *clock, ttl time.Duration) (*Manager, *quota.MemoryStore) {
	engine := ranking.NewEngine(candidate.DefaultRegistry(), candidate.DefaultFounders())
	store := quota.NewMemoryStore()
	m := NewManager(func(id string) *Session {
		return New(id, engine, quota.New(store, quota.WithScope(id)), WithClock(c.Now))
	}, ttl, metrics.NewRegistry())
	m.now = c.Now
	return m, store
}

func TestManagerCreateGetDelete(t *testing.T) {
	c := &clock{now: time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)}
	m := newTestManager(c, time.Hour)

	s := m.Create()
	require.NotEmpty(t, s.ID())
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Delete(s.ID()))
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(s.ID()), ErrSessionNotFound)
}

func TestManagerSessionsHaveSeparateQuotas(t *testing.T) {
	c := &clock{now: time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)}
	m := newTestManager(c, 0)
	ctx := context.Background()

	a, b := m.Create(), m.Create()
	_, err := a.Rank(ctx, equinoxBundle(), true)
	require.NoError(t, err)

	ra, err := a.RemainingRerolls(ctx, "巳")
	require.NoError(t, err)
	rb, err := b.RemainingRerolls(ctx, "巳")
	require.NoError(t, err)
	assert.Equal(t, quota.DefaultLimit-1, ra)
	assert.Equal(t, quota.DefaultLimit, rb)
}

func TestManagerSweepExpiresIdleSessions(t *testing.T) {
	c := &clock{now: time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)}
	m := newTestManager(c, 30*time.Minute)

	idle := m.Create()
	c.Advance(20 * time.Minute)
	active := m.Create()
	c.Advance(15 * time.Minute)

	assert.Equal(t, 1, m.Sweep())
	_, err := m.Get(idle.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(active.ID())
	assert.NoError(t, err)
}

func TestManagerSweepDisabled(t *testing.T) {
	c := &clock{now: time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)}
	m := newTestManager(c, 0)

	m.Create()
	c.Advance(24 * time.Hour)
	assert.Zero(t, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestManagerRunStopsWithContext(t *testing.T) {
	c := &clock{now: time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)}
	m := newTestManager(c, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestManagerReleasesQuotaOfEndedSessions(t *testing.T) {
	c := &clock{now: time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)}
	m, store := newTestManagerWithStore(c, 30*time.Minute)
	ctx := context.Background()

	idle, deleted := m.Create(), m.Create()
	for _, s := range []*Session{idle, deleted} {
		_, err := s.Rank(ctx, equinoxBundle(), true)
		require.NoError(t, err)
	}
	c.Advance(20 * time.Minute)
	active := m.Create()
	_, err := active.Rank(ctx, equinoxBundle(), true)
	require.NoError(t, err)
	require.Equal(t, 3, store.Len())

	require.NoError(t, m.Delete(deleted.ID()))
	assert.Equal(t, 2, store.Len())

	c.Advance(15 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, store.Len())

	remaining, err := active.RemainingRerolls(ctx, "巳")
	require.NoError(t, err)
	assert.Equal(t, quota.DefaultLimit-1, remaining)
}
