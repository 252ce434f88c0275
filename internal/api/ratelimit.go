package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/feedline-core/internal/infrastructure/config"
)

// limiterIdleTTL is how long an address bucket survives without traffic.
const limiterIdleTTL = 5 * time.Minute

// ipLimiter is a token bucket per client address.
type ipLimiter struct {
	enabled bool
	limit   rate.Limit
	burst   int

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newIPLimiter(cfg config.RateLimitConfig) *ipLimiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		enabled: cfg.Enabled && cfg.RequestsPerMinute > 0,
		limit:   rate.Limit(float64(cfg.RequestsPerMinute) / 60),
		burst:   burst,
		buckets: make(map[string]*bucket),
	}
}

// allow reports whether the address may make another request now.
func (l *ipLimiter) allow(addr string) bool {
	if !l.enabled {
		return true
	}
	if addr == "" {
		addr = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[addr]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[addr] = b
	}
	b.seen = time.Now()
	return b.lim.Allow()
}

// sweep drops buckets idle for longer than limiterIdleTTL.
func (l *ipLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for addr, b := range l.buckets {
		if now.Sub(b.seen) > limiterIdleTTL {
			delete(l.buckets, addr)
		}
	}
}

func (l *ipLimiter) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}
