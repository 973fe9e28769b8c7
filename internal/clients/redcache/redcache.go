package redcache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/boxabirds/docqa/internal/clients/embed"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

// Options configures the Redis-backed embedding cache.
type Options struct {
	Addr string
	TTL  time.Duration
}

// Cache wraps an Embedder and memoizes query vectors in Redis. Cache failures
// are soft: a broken Redis degrades to the inner embedder, never to an error.
type Cache struct {
	log   *logger.Logger
	rdb   *goredis.Client
	inner embed.Embedder
	ttl   time.Duration
}

func New(opts Options, inner embed.Embedder, log *logger.Logger) (*Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if inner == nil {
		return nil, fmt.Errorf("inner embedder required")
	}

	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 600 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Cache{
		log:   log.With("client", "redcache"),
		rdb:   rdb,
		inner: inner,
		ttl:   ttl,
	}, nil
}

func (c *Cache) Model() string  { return c.inner.Model() }
func (c *Cache) Dimension() int { return c.inner.Dimension() }

func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vec, ok := c.lookup(ctx, key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, vec)
	return vec, nil
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Keys carry the model name so switching models never serves stale vectors.
func (c *Cache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embed:%s:%x", c.inner.Model(), sum)
}

func (c *Cache) lookup(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("Embedding cache read failed", "error", err.Error())
		}
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		c.log.Warn("Embedding cache entry corrupt; dropping", "key", key, "error", err.Error())
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false
	}
	if len(vec) != c.inner.Dimension() {
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false
	}
	return vec, true
}

func (c *Cache) store(ctx context.Context, key string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("Embedding cache write failed", "error", err.Error())
	}
}
