package gateway

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClaimLimiter rate-limits the claim endpoints (reward claim, collection
// mint) per tenant, a leaky bucket of burst with one token refilled every
// window/burst interval — spec default 2 requests per 5 seconds per tenant.
type ClaimLimiter struct {
	mu       sync.Mutex
	burst    int
	interval time.Duration
	buckets  map[int64]*rate.Limiter
}

// NewClaimLimiter builds a limiter allowing burst requests per window,
// refilling continuously thereafter at the same average rate.
func NewClaimLimiter(burst int, window time.Duration) *ClaimLimiter {
	if burst <= 0 {
		burst = 2
	}
	if window <= 0 {
		window = 5 * time.Second
	}
	return &ClaimLimiter{
		burst:    burst,
		interval: window,
		buckets:  make(map[int64]*rate.Limiter),
	}
}

// Allow reports whether tenantID may make another claim request right now,
// creating and lazily reusing that tenant's bucket.
func (c *ClaimLimiter) Allow(tenantID int64) bool {
	c.mu.Lock()
	l, ok := c.buckets[tenantID]
	if !ok {
		every := rate.Every(c.interval / time.Duration(c.burst))
		l = rate.NewLimiter(every, c.burst)
		c.buckets[tenantID] = l
	}
	c.mu.Unlock()
	return l.Allow()
}
