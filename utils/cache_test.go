package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	useTestConfig(t)
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetRedis(rc)
	t.Cleanup(func() {
		SetRedis(nil)
		_ = rc.Close()
	})
	return mr
}

func TestCache_SetGet(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	CacheSetJSON(ctx, "cache:post:detail:1", map[string]int{"id": 1}, 0)

	b, ok := CacheGetBytes(ctx, "cache:post:detail:1")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":1}`, string(b))
	assert.Equal(t, 120*time.Second, mr.TTL("cache:post:detail:1"))

	_, ok = CacheGetBytes(ctx, "cache:post:detail:2")
	assert.False(t, ok)
}

func TestCache_InvalidateByPrefix(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	CacheSetBytes(ctx, "cache:posts:list:page=0", []byte("a"), time.Minute)
	CacheSetBytes(ctx, "cache:post:detail:3", []byte("b"), time.Minute)
	CacheSetBytes(ctx, "other:key", []byte("c"), time.Minute)

	InvalidateByPrefix(ctx, "cache:post")

	assert.False(t, mr.Exists("cache:posts:list:page=0"))
	assert.False(t, mr.Exists("cache:post:detail:3"))
	assert.True(t, mr.Exists("other:key"))
}

func TestCache_DisabledWithoutRedis(t *testing.T) {
	useTestConfig(t)
	SetRedis(nil)
	ctx := context.Background()

	CacheSetJSON(ctx, "k", "v", time.Minute)
	_, ok := CacheGetBytes(ctx, "k")
	assert.False(t, ok)
	InvalidateByPrefix(ctx, "k")
}

func TestRevokeToken_Redis(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	RevokeToken(ctx, "jti-1", time.Now().Add(time.Minute))
	assert.True(t, IsTokenRevoked(ctx, "jti-1"))
	assert.False(t, IsTokenRevoked(ctx, "jti-2"))
	assert.True(t, mr.Exists(blacklistKeyPrefix+"jti-1"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, IsTokenRevoked(ctx, "jti-1"))
}

func TestRevokeToken_MemoryFallback(t *testing.T) {
	useTestConfig(t)
	SetRedis(nil)
	ctx := context.Background()

	RevokeToken(ctx, "mem-1", time.Now().Add(time.Minute))
	assert.True(t, IsTokenRevoked(ctx, "mem-1"))

	RevokeToken(ctx, "mem-expired", time.Now().Add(-time.Second))
	assert.False(t, IsTokenRevoked(ctx, "mem-expired"))
	assert.False(t, IsTokenRevoked(ctx, ""))
}

func TestRevokeToken_RedisDownFallsBackToMemory(t *testing.T) {
	mr := withMiniredis(t)
	mr.Close()
	ctx := context.Background()

	RevokeToken(ctx, "down-1", time.Now().Add(time.Minute))
	assert.True(t, IsTokenRevoked(ctx, "down-1"))

	_, ok := CacheGetBytes(ctx, "anything")
	assert.False(t, ok)
}
