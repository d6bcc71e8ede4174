package auth

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/localbizsite/localbiz/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_WindowAndReset(t *testing.T) {
	clock := &timex.FixedClock{T: issuedAt}
	l := NewMemoryLimiter(clock)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := l.Hit(ctx, "login:1.2.3.4", 3, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "hit %d", i)
		assert.Equal(t, 3-i, d.Remaining)
	}

	clock.Advance(5 * time.Minute)
	d, err := l.Hit(ctx, "login:1.2.3.4", 3, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 10*time.Minute, d.RetryAfter)

	other, err := l.Hit(ctx, "login:5.6.7.8", 3, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")

	clock.Advance(10 * time.Minute)
	d, err = l.Hit(ctx, "login:1.2.3.4", 3, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "window expired")
	assert.Equal(t, 2, d.Remaining)
}

func TestMemoryLimiter_Undo(t *testing.T) {
	l := NewMemoryLimiter(&timex.FixedClock{T: issuedAt})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := l.Hit(ctx, "register:ip", 1, time.Minute)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.NoError(t, l.Undo(ctx, "register:ip"))
	}

	require.NoError(t, l.Undo(ctx, "unknown"))
}

func TestMemoryLimiter_ConcurrentHitsNeverExceedLimit(t *testing.T) {
	l := NewMemoryLimiter(&timex.FixedClock{T: issuedAt})
	ctx := context.Background()

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Hit(ctx, "login:ip", 10, time.Minute)
			if err == nil && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), allowed.Load())
}

func TestMemoryLimiter_SweepsExpiredBuckets(t *testing.T) {
	clock := &timex.FixedClock{T: issuedAt}
	l := NewMemoryLimiter(clock)
	ctx := context.Background()

	for i := 0; i < sweepEvery-1; i++ {
		_, err := l.Hit(ctx, fmt.Sprintf("k%d", i), 5, time.Second)
		require.NoError(t, err)
	}
	require.Equal(t, sweepEvery-1, l.Len())

	clock.Advance(time.Minute)
	_, err := l.Hit(ctx, "fresh", 5, time.Second)
	require.NoError(t, err)

	assert.Equal(t, 1, l.Len())
}
