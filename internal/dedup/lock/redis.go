package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis key prefix for pass locks
const passLockKeyPrefix = "dedup:pass:"

// releaseScript deletes the lock only when the caller still owns it, so an
// expired-and-reacquired lock is never released by the previous holder.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// RedisLock extends pass serialization across processes. This is the
// recommended implementation when several workers share one database.
type RedisLock struct {
	client *redis.Client
}

// NewRedisLock constructs a Redis-backed pass lock.
func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) Acquire(ctx context.Context, recordType, attribute string, ttl time.Duration) (func(), error) {
	key := passLockKeyPrefix + recordType + "/" + attribute
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire %s: %w", key, ErrHeld)
	}

	return func() {
		// Release is best effort; the TTL bounds a leaked lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Result()
	}, nil
}
