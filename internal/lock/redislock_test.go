package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/trademarket/backend-market/internal/lock"
)

func newLocker(t *testing.T) lock.Locker {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}
}

func TestWithLockSerializesHolders(t *testing.T) {
	locker := newLocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := lock.ReceiptKey(42)

	var mu sync.Mutex
	var order []string
	firstInside := make(chan struct{})
	releaseFirst := make(chan struct{})
	done := make(chan struct{})

	go func() {
		err := locker.WithLock(ctx, key, time.Second, func(context.Context) error {
			mu.Lock()
			order = append(order, "first")
			mu.Unlock()
			close(firstInside)
			<-releaseFirst
			return nil
		})
		require.NoError(t, err)
	}()

	<-firstInside

	go func() {
		defer close(done)
		err := locker.WithLock(ctx, key, time.Second, func(context.Context) error {
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}()

	// The second holder must wait until the first releases.
	time.Sleep(25 * time.Millisecond)
	mu.Lock()
	require.Equal(t, []string{"first"}, order)
	mu.Unlock()

	close(releaseFirst)
	<-done

	mu.Lock()
	require.Equal(t, []string{"first", "second"}, order)
	mu.Unlock()
}

func TestWithLockReleasedOnError(t *testing.T) {
	locker := newLocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	key := lock.ReceiptKey(7)

	wantErr := context.Canceled
	err := locker.WithLock(ctx, key, time.Second, func(context.Context) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	// The key must be free again immediately.
	err = locker.WithLock(ctx, key, time.Second, func(context.Context) error { return nil })
	require.NoError(t, err)
}

func TestWithLockAcquireTimeout(t *testing.T) {
	locker := newLocker(t)

	key := lock.ReceiptKey(9)
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = locker.WithLock(context.Background(), key, time.Second, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := locker.WithLock(ctx, key, time.Second, func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
