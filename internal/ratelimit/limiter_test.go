package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/vms-inventory/internal/ratelimit"
)

func TestCheck_FixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	l := ratelimit.NewLimiter(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "salt")
	cfg := ratelimit.LimitConfig{Rate: 2, Window: 10 * time.Second}
	ctx := context.Background()

	d, err := l.Check(ctx, ratelimit.ScopeGlobalIP, "k", cfg)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, 10, d.RetryAfter)

	d, _ = l.Check(ctx, ratelimit.ScopeGlobalIP, "k", cfg)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = l.Check(ctx, ratelimit.ScopeGlobalIP, "k", cfg)
	assert.False(t, d.Allowed)
	assert.True(t, mr.Exists("rl:ip:k"))

	mr.FastForward(11 * time.Second)
	d, _ = l.Check(ctx, ratelimit.ScopeGlobalIP, "k", cfg)
	assert.True(t, d.Allowed)
}

func TestCheck_ScopesAreSeparate(t *testing.T) {
	mr := miniredis.RunT(t)
	l := ratelimit.NewLimiter(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	cfg := ratelimit.LimitConfig{Rate: 1, Window: time.Second}

	d, _ := l.Check(context.Background(), ratelimit.ScopeUser, "7", cfg)
	assert.True(t, d.Allowed)
	d, _ = l.Check(context.Background(), ratelimit.ScopeLogin, "7", cfg)
	assert.True(t, d.Allowed)
}

func TestCheck_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	l := ratelimit.NewLimiter(redis.NewClient(&redis.Options{Addr: addr}), "salt")
	_, err = l.Check(context.Background(), ratelimit.ScopeGlobalIP, "k", ratelimit.LimitConfig{Rate: 1, Window: time.Second})
	assert.True(t, errors.Is(err, ratelimit.ErrRedisUnavailable))
}

func TestHashIP(t *testing.T) {
	l := ratelimit.NewLimiter(nil, "salt")
	assert.Equal(t, l.HashIP("1.2.3.4"), l.HashIP("1.2.3.4"))
	assert.NotEqual(t, l.HashIP("1.2.3.4"), l.HashIP("1.2.3.5"))
	assert.NotContains(t, l.HashIP("1.2.3.4"), "1.2.3.4")
}
