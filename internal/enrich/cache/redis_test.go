package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCacheWithClient(client, DefaultConfig()), mr
}

func TestNewRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	config := DefaultRedisConfig()
	config.Addr = mr.Addr()

	c, err := NewRedisCache(config)
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c)
}

func TestNewRedisCache_ConnectionError(t *testing.T) {
	config := DefaultRedisConfig()
	config.Addr = "localhost:1"

	_, err := NewRedisCache(config)
	assert.Error(t, err)
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c, _ := setupTestRedis(t)
	defer c.Close()

	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))

	got, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)
	defer c.Close()

	_, err := c.Get(context.Background(), "absent")
	assert.True(t, IsCacheMiss(err))
}

func TestRedisCache_Expiration(t *testing.T) {
	c, mr := setupTestRedis(t)
	defer c.Close()

	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "key")
	assert.True(t, IsCacheMiss(err))
}

func TestRedisCache_DeleteAndClear(t *testing.T) {
	c, _ := setupTestRedis(t)
	defer c.Close()

	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))

	require.NoError(t, c.Delete(ctx, "a"))
	_, err := c.Get(ctx, "a")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "b")
	assert.True(t, IsCacheMiss(err))
}

func TestRedisCache_PrefixIsolation(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCacheWithClient(client, Config{DefaultTTL: time.Minute, Prefix: "easysdk:"})
	defer c.Close()

	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, c.Clear(ctx))

	got, err := mr.Get("unrelated")
	require.NoError(t, err)
	assert.Equal(t, "keep", got)
}
