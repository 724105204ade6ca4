package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &io_prometheus_client.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestObserver(t *testing.T) {
	r := NewRegistry()

	r.ObservePass(false, 2*time.Millisecond)
	r.ObservePass(true, time.Millisecond)
	r.ObservePass(true, time.Millisecond)
	r.AlgorithmFailed(slot.Oracle)
	r.ObserveMultiplier(1.1)

	assert.Equal(t, 1.0, counterValue(t, r.Passes.WithLabelValues("standard")))
	assert.Equal(t, 2.0, counterValue(t, r.Passes.WithLabelValues("reroll")))
	assert.Equal(t, 1.0, counterValue(t, r.AlgorithmFailures.WithLabelValues("oracle")))

	m := &io_prometheus_client.Metric{}
	require.NoError(t, r.Multiplier.Write(m))
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
}

func TestQuotaAndSinkCounters(t *testing.T) {
	r := NewRegistry()

	r.RecordReroll()
	r.RecordReroll()
	r.RecordQuotaExhausted()
	r.RecordSinkFailure("history")
	r.SetBreakerState("history", 2)
	r.StartSinkTimer("history").Stop("error")

	assert.Equal(t, 2.0, counterValue(t, r.RerollsConsumed))
	assert.Equal(t, 1.0, counterValue(t, r.QuotaExhausted))
	assert.Equal(t, 1.0, counterValue(t, r.SinkFailures.WithLabelValues("history")))

	g := &io_prometheus_client.Metric{}
	require.NoError(t, r.BreakerState.WithLabelValues("history").Write(g))
	assert.Equal(t, 2.0, g.GetGauge().GetValue())
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.ObserveHTTP("/v1/candidates", "GET", 200, 5*time.Millisecond)
	r.SetActiveSessions(3)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.True(t, strings.Contains(text, `vibeoracle_http_requests_total{method="GET",route="/v1/candidates",status="200"} 1`))
	assert.Contains(t, text, "vibeoracle_active_sessions 3")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	a.RecordReroll()
	assert.Equal(t, 0.0, counterValue(t, b.RerollsConsumed))
}
