package hover

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, time.March, 20, 10, 0, 0, 0, time.UTC)}
	return NewTrackerWithClock(clock.Now), clock
}

func TestStartEndAccumulates(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartHover("OpenAI")
	clock.Advance(1500 * time.Millisecond)
	tr.EndHover("OpenAI")

	tr.StartHover("OpenAI")
	clock.Advance(500 * time.Millisecond)
	tr.EndHover("OpenAI")

	tr.StartHover("Anthropic")
	clock.Advance(time.Second)
	tr.EndHover("Anthropic")

	assert.Equal(t, map[string]int64{"OpenAI": 2000, "Anthropic": 1000}, tr.Snapshot())
}

func TestEndWithoutStartIsNoop(t *testing.T) {
	tr, clock := newTestTracker()

	clock.Advance(time.Second)
	tr.EndHover("Google")
	assert.Empty(t, tr.Snapshot())
}

func TestSnapshotRollsOpenIntervalsForward(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartHover("Meta")
	clock.Advance(300 * time.Millisecond)
	assert.Equal(t, int64(300), tr.Snapshot()["Meta"])

	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, int64(500), tr.Snapshot()["Meta"])

	clock.Advance(100 * time.Millisecond)
	tr.EndHover("Meta")
	assert.Equal(t, int64(600), tr.Snapshot()["Meta"])
}

func TestReset(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartHover("xAI")
	clock.Advance(time.Second)
	tr.Reset()
	tr.EndHover("xAI")

	assert.Empty(t, tr.Snapshot())
}

func TestConcurrentUse(t *testing.T) {
	tr := NewTracker()
	names := []string{"OpenAI", "Anthropic", "Google", "Meta"}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := names[i%len(names)]
			tr.StartHover(name)
			tr.EndHover(name)
			tr.Snapshot()
		}(i)
	}
	wg.Wait()

	for _, ms := range tr.Snapshot() {
		assert.GreaterOrEqual(t, ms, int64(0))
	}
}
