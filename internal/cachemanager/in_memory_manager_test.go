package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type description struct {
	Domain string
	Lines  int
}

func newTestCache[V any]() *InMemoryCacheManager[string, V] {
	return NewInMemoryCacheManager[string, V]("test", DefaultExpiration, DefaultCleanupInterval)
}

func TestInMemoryCacheManager_GetSet(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache[description]()

	_, ok := cache.Get(ctx, "r_gamma|float")
	require.False(t, ok)

	want := description{Domain: "Domain is any number from 0.5 to 3", Lines: 1}
	cache.Set(ctx, "r_gamma|float", want, DefaultExpiration)

	got, ok := cache.Get(ctx, "r_gamma|float")
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, Stats{Hits: 1, Misses: 1, Items: 1}, cache.Stats())
}

type typedKey string

func TestInMemoryCacheManager_NamedKeyType(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[typedKey, int]("typed", DefaultExpiration, DefaultCleanupInterval)

	cache.Set(ctx, typedKey("a"), 1, DefaultExpiration)
	got, ok := cache.Get(ctx, typedKey("a"))
	require.True(t, ok)
	require.Equal(t, 1, got)
}

func TestInMemoryCacheManager_GetMultiple(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache[string]()

	_, ok := cache.GetMultiple(ctx, nil)
	require.False(t, ok)

	_, ok = cache.GetMultiple(ctx, []string{"a", "b"})
	require.False(t, ok, "all missing")

	cache.Set(ctx, "a", "apple", DefaultExpiration)
	got, ok := cache.GetMultiple(ctx, []string{"a", "b"})
	require.True(t, ok)
	require.Equal(t, map[string]string{"a": "apple"}, got)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache[string]()

	cache.Set(ctx, "short", "lived", 20*time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := cache.Get(ctx, "short")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache[string]()

	_, ok := cache.GetWithRefresh(ctx, "missing", time.Minute)
	require.False(t, ok)

	cache.Set(ctx, "k", "v", 30*time.Millisecond)
	got, ok := cache.GetWithRefresh(ctx, "k", time.Hour)
	require.True(t, ok)
	require.Equal(t, "v", got)

	time.Sleep(50 * time.Millisecond)
	_, ok = cache.Get(ctx, "k")
	require.True(t, ok, "refresh extended the ttl")
}

func TestInMemoryCacheManager_DeleteAndPrefix(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache[string]()
	cache.Set(ctx, "r_gamma|float", "x", DefaultExpiration)
	cache.Set(ctx, "r_gamma|int", "y", DefaultExpiration)
	cache.Set(ctx, "r_mode|enum", "z", DefaultExpiration)

	require.Equal(t, 2, cache.DeletePrefix(ctx, "r_gamma|"))
	_, ok := cache.Get(ctx, "r_mode|enum")
	require.True(t, ok)

	require.NoError(t, cache.Delete(ctx, "r_mode|enum"))
	require.NoError(t, cache.Delete(ctx))
	_, ok = cache.Get(ctx, "r_mode|enum")
	require.False(t, ok)

	cache.Set(ctx, "a", "b", DefaultExpiration)
	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.Stats().Items)
}

func TestInMemoryCacheManager_ImplementsCacheManager(t *testing.T) {
	var _ CacheManager[string, int] = newTestCache[int]()
}
