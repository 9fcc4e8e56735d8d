package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(maxSize int) config.CacheConfig {
	return config.CacheConfig{Enabled: true, Backend: "memory", MaxSize: maxSize, TTL: time.Hour}
}

func TestManager_GetSet(t *testing.T) {
	m := NewManager(memoryConfig(10))
	defer m.Close()
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "k", []byte("v")))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.Equal(t, 1, stats["size"])
}

func TestManager_Expiry(t *testing.T) {
	m := NewManager(memoryConfig(10))
	defer m.Close()
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }
	require.NoError(t, m.Set(ctx, "k", []byte("v")))

	now = now.Add(2 * time.Hour)
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	assert.Equal(t, int64(1), m.GetStats()["evictions"])
}

func TestManager_EvictsLeastUsed(t *testing.T) {
	m := NewManager(memoryConfig(2))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "b", []byte("2")))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", []byte("3")))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestNew_Backends(t *testing.T) {
	store, err := New(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = New(memoryConfig(1))
	require.NoError(t, err)
	assert.IsType(t, &Manager{}, store)
	require.NoError(t, store.Close())

	_, err = New(config.CacheConfig{Enabled: true, Backend: "memcached"})
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	a := Key("nutrition", "Milk")
	assert.Equal(t, a, Key("nutrition", "Milk"))
	assert.NotEqual(t, a, Key("nutrition", "milk"))
	assert.NotEqual(t, Key("x", "ab", "c"), Key("x", "a", "bc"))
	assert.Regexp(t, `^nutrition:[0-9a-f]{64}$`, a)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	store, err := NewRedisStore(config.CacheConfig{Enabled: true, Backend: "redis", RedisAddr: addr, TTL: time.Minute})
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	key := Key("test", time.Now().String())
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, store.Set(ctx, key, []byte("value")))
	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}
