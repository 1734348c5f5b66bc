package provider

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder tracks how often the inner embedder is hit.
type countingEmbedder struct {
	inner Embedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) Dimension() int { return c.inner.Dimension() }

func newCacheFixture(t *testing.T) (*CachedEmbedder, *countingEmbedder) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	counting := &countingEmbedder{inner: NewMockEmbedder(16)}
	return NewCachedEmbedder(counting, rdb, time.Hour, nil), counting
}

func TestCachedEmbedder_HitAndMiss(t *testing.T) {
	ctx := context.Background()
	cached, counting := newCacheFixture(t)

	first, err := cached.Embed(ctx, "cached text")
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls)

	second, err := cached.Embed(ctx, "cached text")
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls, "second read comes from the cache")
	assert.Equal(t, first, second)

	_, err = cached.Embed(ctx, "different text")
	require.NoError(t, err)
	assert.Equal(t, 2, counting.calls)
}

func TestCachedEmbedder_DistinctTextsDistinctKeys(t *testing.T) {
	assert.NotEqual(t, cacheKey("a"), cacheKey("b"))
	assert.Equal(t, cacheKey("a"), cacheKey("a"))
}

func TestCachedEmbedder_DegradesWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counting := &countingEmbedder{inner: NewMockEmbedder(16)}
	cached := NewCachedEmbedder(counting, rdb, 0, nil)

	mr.Close()

	v, err := cached.Embed(ctx, "still works")
	require.NoError(t, err, "cache outage must not fail the embed")
	assert.Len(t, v, 16)
	assert.Equal(t, 1, counting.calls)
}

func TestCachedEmbedder_Dimension(t *testing.T) {
	cached, _ := newCacheFixture(t)
	assert.Equal(t, 16, cached.Dimension())
}
