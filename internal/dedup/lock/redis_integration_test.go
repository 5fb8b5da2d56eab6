//go:build integration

package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"convergo/internal/dedup/lock"
	"convergo/pkg/testutil/containers"
)

func TestRedisLock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	require.NoError(t, rc.FlushAll(ctx))

	l := lock.NewRedisLock(rc.Client)

	release, err := l.Acquire(ctx, "contact", "email", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "contact", "email", time.Minute)
	require.ErrorIs(t, err, lock.ErrHeld)

	// Independent pair acquires fine while the first is held.
	rel2, err := l.Acquire(ctx, "contact", "phone", time.Minute)
	require.NoError(t, err)
	rel2()

	release()
	rel3, err := l.Acquire(ctx, "contact", "email", time.Minute)
	require.NoError(t, err)
	rel3()
}

func TestRedisLockExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	require.NoError(t, rc.FlushAll(ctx))

	l := lock.NewRedisLock(rc.Client)

	_, err := l.Acquire(ctx, "contact", "email", time.Second)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rel, err := l.Acquire(ctx, "contact", "email", time.Minute)
		if err != nil {
			return false
		}
		rel()
		return true
	}, 5*time.Second, 200*time.Millisecond, "TTL frees a crashed holder's lock")
}
