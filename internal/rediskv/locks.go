package rediskv

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

var _ types.KeyLocker = (*Backend)(nil)

const (
	// lockTTL bounds how long a crashed holder can block a key.
	lockTTL = 30 * time.Second

	lockRetryMin = 2 * time.Millisecond
	lockRetryMax = 50 * time.Millisecond
)

// unlockScript deletes KEYS[1] only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// LockKey takes a lease on key with SET NX PX, polling until it is free or
// ctx is done. The lease expires after lockTTL if never released.
func (b *Backend) LockKey(ctx context.Context, key string) (func() error, error) {
	rdb, ns, err := b.client()
	if err != nil {
		return nil, err
	}

	lease := LockKey(ns, key)
	token := uuid.NewString()
	wait := lockRetryMin
	for {
		ok, err := rdb.SetNX(ctx, lease, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if wait *= 2; wait > lockRetryMax {
			wait = lockRetryMax
		}
	}

	release := func() error {
		if err := unlockScript.Run(context.Background(), rdb, []string{lease}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}
	return release, nil
}
