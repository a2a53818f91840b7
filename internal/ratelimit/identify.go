package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/kiosk/internal/config"
)

const keyIdentify = "kiosk:identify:%s"

// IdentifyLimiter throttles badge lookups per client address so a kiosk
// cannot be used to enumerate badges.
type IdentifyLimiter struct {
	limiter Limiter
	holder  *config.KioskConfigHolder
}

func NewIdentifyLimiter(client *redis.Client, holder *config.KioskConfigHolder) *IdentifyLimiter {
	var limiter Limiter = NewMemoryBucket()
	if bucket := NewTokenBucket(client); bucket != nil {
		limiter = bucket
	}
	return &IdentifyLimiter{limiter: limiter, holder: holder}
}

// NewIdentifyLimiterWith builds a limiter around an explicit backend.
func NewIdentifyLimiterWith(limiter Limiter, holder *config.KioskConfigHolder) *IdentifyLimiter {
	return &IdentifyLimiter{limiter: limiter, holder: holder}
}

func (l *IdentifyLimiter) Allow(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	if l == nil || l.limiter == nil {
		return &RateLimitResult{Allowed: true}, nil
	}
	cfg := config.DefaultKioskConfig().Identify
	if l.holder != nil {
		cfg = l.holder.Get().Identify
	}
	key := fmt.Sprintf(keyIdentify, strings.TrimSpace(clientKey))
	return l.limiter.Allow(ctx, key, cfg.RatePerSecond, cfg.Burst)
}
