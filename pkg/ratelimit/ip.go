package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPLimiter is a per-key token bucket used for coarse per-address throttling.
type IPLimiter struct {
	limit   rate.Limit
	burst   int
	idle    time.Duration
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPLimiter creates a limiter for the provided requests-per-minute budget.
// A non-positive budget disables throttling and returns nil.
func NewIPLimiter(requestsPerMinute int) *IPLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &IPLimiter{
		limit:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		idle:    5 * time.Minute,
		clients: make(map[string]*clientLimiter),
	}
}

// Allow reports whether one more request from key may proceed now.
func (l *IPLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	return l.getLimiter(key).Allow()
}

func (l *IPLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.clients[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(l.limit, l.burst)
	l.clients[key] = &clientLimiter{limiter: limiter, lastSeen: now}
	l.cleanupLocked(now)
	return limiter
}

func (l *IPLimiter) cleanupLocked(now time.Time) {
	for key, entry := range l.clients {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.clients, key)
		}
	}
}
