package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedChart struct {
	ID    string  `json:"id"`
	JD    float64 `json:"jd"`
	Signs []string
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(WithMemoryMaxSize(10))

	in := cachedChart{ID: "abc", JD: 2451545.0, Signs: []string{"Capricorn", "Scorpio"}}
	require.NoError(t, c.Set(ctx, "chart:abc", in, time.Minute))

	var out cachedChart
	require.NoError(t, c.Get(ctx, "chart:abc", &out))
	assert.Equal(t, in, out)

	require.NoError(t, c.Set(ctx, "plain", "value", 0))
	var s string
	require.NoError(t, c.Get(ctx, "plain", &s))
	assert.Equal(t, "value", s)

	assert.ErrorIs(t, c.Get(ctx, "missing", &s), ErrCacheMiss)
}

func TestMemoryCacheExpiresEntries(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 1, time.Second))
	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	var v int
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrCacheMiss)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheEvictsLeastRecent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(WithMemoryMaxSize(2))
	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	require.NoError(t, c.Set(ctx, "c", 3, 0))

	ok, _ := c.Exists(ctx, "a")
	assert.False(t, ok)
	ok, _ = c.Exists(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryCacheLock(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	ok, err := c.TryLock(ctx, "req:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryLock(ctx, "req:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Unlock(ctx, "req:1"))
	assert.ErrorIs(t, c.Unlock(ctx, "req:1"), ErrCacheMiss)

	ok, err = c.TryLock(ctx, "req:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLayeredCachePromotesFromL2(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2, WithLayeredMemorySize(10), WithLayeredMemoryTTL(time.Minute))

	require.NoError(t, l2.Set(ctx, "only-l2", cachedChart{ID: "x"}, time.Hour))
	var out cachedChart
	require.NoError(t, lc.Get(ctx, "only-l2", &out))
	assert.Equal(t, "x", out.ID)

	require.NoError(t, l2.Delete(ctx, "only-l2"))
	out = cachedChart{}
	require.NoError(t, lc.Get(ctx, "only-l2", &out), "second read is served by L1")
	assert.Equal(t, "x", out.ID)
}

func TestLayeredCacheWriteThroughAndDelete(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2)

	require.NoError(t, lc.Set(ctx, "k", "v", time.Hour))
	var s string
	require.NoError(t, l2.Get(ctx, "k", &s))
	assert.Equal(t, "v", s)

	require.NoError(t, lc.Delete(ctx, "k"))
	assert.ErrorIs(t, lc.Get(ctx, "k", &s), ErrCacheMiss)

	ok, err := lc.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = l2.Exists(ctx, "lock")
	assert.True(t, ok)
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "chart:abc", GenerateKey("chart", "abc"))
	assert.Equal(t, "sky:41.9:12.5", GenerateKeyWithParams("sky", 41.9, 12.5))
	assert.Len(t, HashKey("anything"), 32)
	assert.Equal(t, HashKey("a"), HashKey("a"))
}

func TestRedisKeysCarryPrefix(t *testing.T) {
	cfg := &RedisConfig{}
	WithRedisPrefix("tenant-a")(cfg)
	WithRedisPool(20, 2, time.Second)(cfg)
	assert.Equal(t, "tenant-a", cfg.Prefix)
	assert.Equal(t, 20, cfg.PoolSize)

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()
	assert.Equal(t, "tenant-a:chart:abc", NewRedisCacheFromClient(client, cfg.Prefix).wrapKey("chart:abc"))
	assert.Equal(t, "astrochart:chart:abc", NewRedisCacheFromClient(client, "").wrapKey("chart:abc"))
}
