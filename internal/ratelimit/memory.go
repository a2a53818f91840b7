package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryBucket keeps token buckets in process. It serves single-node
// deployments without redis.
type MemoryBucket struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
}

func (m *MemoryBucket) Allow(_ context.Context, key string, r float64, burst int) (*RateLimitResult, error) {
	if err := validate(key, r, burst); err != nil {
		return &RateLimitResult{Allowed: false}, err
	}

	m.mu.Lock()
	limiter, ok := m.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(r), burst)
		m.limiters[key] = limiter
	} else if limiter.Limit() != rate.Limit(r) || limiter.Burst() != burst {
		limiter.SetLimit(rate.Limit(r))
		limiter.SetBurst(burst)
	}
	m.mu.Unlock()

	now := m.now()
	allowed := limiter.AllowN(now, 1)
	remaining := limiter.TokensAt(now)
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitResult{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  int(remaining),
		RetryAfter: retryAfter(allowed, remaining, r),
	}, nil
}
