package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "kiosk:lock:"

// compare-and-delete so an expired lease never removes a newer holder's key
var releaseLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var (
	ErrLockNotConfigured = errors.New("lock_not_configured")
	ErrInvalidLockKey    = errors.New("invalid_lock_key")
	ErrInvalidLockTTL    = errors.New("invalid_lock_ttl")
)

// Locker hands out short leases on named keys so only one scheduler
// process closes a period at a time.
type Locker struct {
	client *redis.Client
	owner  string
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	owner, err := os.Hostname()
	if err != nil || strings.TrimSpace(owner) == "" {
		owner = "kiosk"
	}
	return &Locker{client: client, owner: owner}
}

// TryLock returns the lease token when the key was free.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrLockNotConfigured
	}
	name, err := lockKey(key)
	if err != nil {
		return "", false, err
	}
	if ttl <= 0 {
		return "", false, ErrInvalidLockTTL
	}

	token := fmt.Sprintf("%s/%s", l.owner, uuid.NewString())
	ok, err := l.client.SetNX(ctx, name, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release drops the lease if token still owns it.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil || token == "" {
		return nil
	}
	name, err := lockKey(key)
	if err != nil {
		return err
	}
	return releaseLease.Run(ctx, l.client, []string{name}, token).Err()
}

func lockKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidLockKey
	}
	if strings.HasPrefix(key, lockKeyPrefix) {
		return key, nil
	}
	return lockKeyPrefix + key, nil
}
