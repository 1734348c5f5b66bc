package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hirestack/assessrec/vec"
)

// CachedEmbedder memoizes an Embedder in redis, keyed by the exact
// text content. This keeps the regeneration job and repeated
// identical queries from re-billing the provider; it is not a
// semantic cache.
type CachedEmbedder struct {
	inner  Embedder
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedEmbedder wraps inner with a redis cache. A zero ttl means
// entries never expire.
func NewCachedEmbedder(inner Embedder, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "assessrec:emb:" + hex.EncodeToString(sum[:])
}

// Embed returns the cached vector when present, otherwise delegates
// and stores the result. Cache failures degrade to the inner embedder
// rather than failing the request.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)

	blob, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		if v, decErr := vec.Decode(blob); decErr == nil && len(v) == c.inner.Dimension() {
			return v, nil
		}
		// Corrupt entry: fall through and overwrite.
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("embedding cache read failed", zap.Error(err))
	}

	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.rdb.Set(ctx, key, vec.Encode(v), c.ttl).Err(); err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}
	return v, nil
}

// Dimension returns the inner embedder's dimension.
func (c *CachedEmbedder) Dimension() int { return c.inner.Dimension() }

var _ Embedder = (*CachedEmbedder)(nil)
