package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeoracle/internal/collector"
	"github.com/sawpanic/vibeoracle/internal/config"
	"github.com/sawpanic/vibeoracle/internal/quota"
)

func TestNewDefaults(t *testing.T) {
	a, err := New(context.Background(), config.Default())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 12, a.Registry.Len())
	assert.IsType(t, &quota.MemoryStore{}, a.Store)
	assert.Zero(t, a.Sinks.Len())
	assert.Nil(t, a.History)
	assert.Equal(t, 7, a.Quota("s").Limit())
}

func TestNewWithSQLiteHistory(t *testing.T) {
	cfg := config.Default()
	cfg.History.Enabled = true
	cfg.History.Driver = "sqlite"
	cfg.History.DSN = ":memory:"
	cfg.Quota.Limit = 1

	ctx := context.Background()
	a, err := New(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()
	require.Equal(t, 1, a.Sinks.Len())

	s := a.Sessions.Create()
	b, err := a.Collector.Collect(collectorSignals())
	require.NoError(t, err)

	pass, err := s.Rank(ctx, b, true)
	require.NoError(t, err)

	_, err = s.Rank(ctx, b, true)
	assert.ErrorIs(t, err, quota.ErrQuotaExhausted)

	recent, err := a.History.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, pass.ID, recent[0].ID)
	assert.Equal(t, s.ID(), recent[0].SessionID)
	assert.Len(t, recent[0].Results, 12)
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	cfg := config.Default()
	cfg.Quota.Backend = config.BackendRedis
	cfg.Quota.Redis.Addr = "127.0.0.1:1"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "failed to reach redis")
}

func TestNewFailsOnMissingWeightsFile(t *testing.T) {
	cfg := config.Default()
	cfg.Scoring.WeightsFile = t.TempDir() + "/missing.yaml"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func collectorSignals() collector.ClientSignals {
	return collector.ClientSignals{Timezone: "UTC", UserAgent: "Mozilla/5.0 (X11; Linux x86_64) Firefox/125.0"}
}
