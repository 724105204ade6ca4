// Package hover accumulates how long the requester hovers over each
// candidate between passes.
package hover

import (
	"sync"
	"time"
)

// Tracker accumulates hover time per candidate. Safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	totals map[string]time.Duration
	open   map[string]time.Time
	now    func() time.Time
}

// NewTracker returns an empty tracker on the wall clock.
func NewTracker() *Tracker {
	return NewTrackerWithClock(time.Now)
}

func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		totals: make(map[string]time.Duration),
		open:   make(map[string]time.Time),
		now:    now,
	}
}

// StartHover opens an interval for name. A second start restarts it.
func (t *Tracker) StartHover(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open[name] = t.now()
}

// EndHover closes the open interval for name and adds it to the total. It is
// a no-op when no interval is open.
func (t *Tracker) EndHover(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, ok := t.open[name]
	if !ok {
		return
	}
	delete(t.open, name)
	if d := t.now().Sub(start); d > 0 {
		t.totals[name] += d
	}
}

// Snapshot returns the hover totals in milliseconds, counting open intervals
// up to now. Open intervals are rolled forward so they are not counted twice.
func (t *Tracker) Snapshot() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for name, start := range t.open {
		if d := now.Sub(start); d > 0 {
			t.totals[name] += d
		}
		t.open[name] = now
	}

	out := make(map[string]int64, len(t.totals))
	for name, d := range t.totals {
		out[name] = d.Milliseconds()
	}
	return out
}

// Reset discards all totals and open intervals.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals = make(map[string]time.Duration)
	t.open = make(map[string]time.Time)
}
