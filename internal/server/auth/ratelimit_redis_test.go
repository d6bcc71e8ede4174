package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLimiter_WindowRefundAndReset(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	l := NewRedisLimiter(rdb, "localbiz:rl")
	ctx := context.Background()

	for want := 1; want >= 0; want-- {
		d, err := l.Hit(ctx, "login:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, want, d.Remaining)
	}
	assert.True(t, mr.Exists("localbiz:rl:login:1.2.3.4"))
	assert.Equal(t, time.Minute, mr.TTL("localbiz:rl:login:1.2.3.4"))

	d, err := l.Hit(ctx, "login:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	got, err := mr.Get("localbiz:rl:login:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "2", got, "rejected hits are refunded")

	mr.FastForward(time.Minute)
	d, err = l.Hit(ctx, "login:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestRedisLimiter_RepairsMissingTTL(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	l := NewRedisLimiter(rdb, "rl")

	require.NoError(t, mr.Set("rl:register:ip", "1"))
	assert.Equal(t, time.Duration(0), mr.TTL("rl:register:ip"))

	d, err := l.Hit(context.Background(), "register:ip", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 3, d.Remaining)
	assert.Equal(t, 15*time.Minute, mr.TTL("rl:register:ip"))
	assert.Equal(t, 15*time.Minute, d.RetryAfter)
}

func TestRedisLimiter_UndoNeverGoesNegative(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	l := NewRedisLimiter(rdb, "rl")
	ctx := context.Background()

	require.NoError(t, l.Undo(ctx, "register:ip"))
	assert.False(t, mr.Exists("rl:register:ip"), "undo does not create keys")

	require.NoError(t, mr.Set("rl:register:ip", "0"))
	require.NoError(t, l.Undo(ctx, "register:ip"))
	got, err := mr.Get("rl:register:ip")
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	_, err = l.Hit(ctx, "register:ip", 5, time.Minute)
	require.NoError(t, err)
	require.NoError(t, l.Undo(ctx, "register:ip"))
	got, err = mr.Get("rl:register:ip")
	require.NoError(t, err)
	assert.Equal(t, "0", got)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	l := NewRedisLimiter(rdb, "rl")
	mr.Close()

	_, err := l.Hit(context.Background(), "login:ip", 2, time.Minute)
	assert.Error(t, err)
}

// The tests below run against a real Redis when LOCALBIZ_TEST_REDIS_ADDR is set.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("LOCALBIZ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LOCALBIZ_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestRedisLimiter_LimitAndUndo(t *testing.T) {
	rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, "test-"+uuid.NewString())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Hit(ctx, "login:ip", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	d, err := l.Hit(ctx, "login:ip", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	require.NoError(t, l.Undo(ctx, "login:ip"))
	d, err = l.Hit(ctx, "login:ip", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
