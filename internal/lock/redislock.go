// Package lock provides a Redis-backed mutex used to serialize mutations on
// a single receipt across API instances.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 15 * time.Second

// releaseScript deletes the key only when it still holds our token, so an
// expired lock taken over by another holder is never released by us.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// ReceiptKey returns the lock key guarding mutations of one receipt.
func ReceiptKey(receiptID int64) string {
	return fmt.Sprintf("lock:receipt:%d", receiptID)
}

// Locker acquires short-lived exclusive locks in Redis via SET NX.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
}

// WithLock runs fn while holding the lock for key. Acquisition is retried
// with a fixed backoff until the context is done. The lock is released when
// fn returns, regardless of its error.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}

	token := uuid.NewString()
	for {
		acquired, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if acquired {
			defer l.release(key, token)
			return fn(ctx)
		}

		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l Locker) release(key, token string) {
	// Release must not be cancelled along with the guarded operation.
	ctx := context.Background()
	if err := l.R.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.R.Del(ctx, key).Err()
		}
	}
}
