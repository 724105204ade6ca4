package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Limiter provides per-client rate limiting using a token bucket per key.
// Buckets that stay idle are evicted.
type Limiter struct {
	mu      sync.RWMutex
	clients map[string]*client
	rps     float64 // Requests per second
	burst   int     // Burst capacity
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a new rate limiter with the specified RPS and burst capacity
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		clients: make(map[string]*client),
		rps:     rps,
		burst:   burst,
		now:     time.Now,
	}
}

// getClient returns or creates the bucket for key and marks it as seen.
func (l *Limiter) getClient(key string, now time.Time) *rate.Limiter {
	l.mu.RLock()
	c, exists := l.clients[key]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		// Double-check after acquiring write lock
		if c, exists = l.clients[key]; !exists {
			c = &client{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
			l.clients[key] = c
		}
		c.lastSeen = now
		l.mu.Unlock()
		return c.limiter
	}

	l.mu.Lock()
	c.lastSeen = now
	l.mu.Unlock()
	return c.limiter
}

// Allow returns true if a request for the specified client is allowed
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	return l.getClient(key, now).AllowN(now, 1)
}

// RetryAfter is how long the client has to wait for its next token.
func (l *Limiter) RetryAfter(key string) time.Duration {
	now := l.now()
	r := l.getClient(key, now).ReserveN(now, 1)
	defer r.CancelAt(now)
	return r.DelayFrom(now)
}

// Len is the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clients)
}

// Evict drops clients idle for longer than idle and returns how many went.
func (l *Limiter) Evict(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			evicted++
		}
	}
	return evicted
}

// Run evicts idle clients every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Evict(idle); n > 0 {
				log.Debug().Int("evicted", n).Int("tracked", l.Len()).Msg("Evicted idle rate limit buckets")
			}
		}
	}
}

// Stats returns a snapshot of every tracked client bucket.
func (l *Limiter) Stats() map[string]LimiterStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := make(map[string]LimiterStats, len(l.clients))
	now := l.now()

	for key, c := range l.clients {
		stats[key] = LimiterStats{
			Client:          key,
			RPS:             float64(c.limiter.Limit()),
			Burst:           c.limiter.Burst(),
			TokensAvailable: c.limiter.TokensAt(now),
			LastSeen:        c.lastSeen,
		}
	}

	return stats
}

// LimiterStats represents statistics for a single client limiter
type LimiterStats struct {
	Client          string    `json:"client"`
	RPS             float64   `json:"rps"`
	Burst           int       `json:"burst"`
	TokensAvailable float64   `json:"tokens_available"`
	LastSeen        time.Time `json:"last_seen"`
}

// IsThrottled returns true if the client has no whole token left
func (s LimiterStats) IsThrottled() bool {
	return s.TokensAvailable < 1
}
