package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/pkg/errors"
)

// DefaultCachePrefix namespaces lookup cache keys.
const DefaultCachePrefix = "ontoground:lookup:"

type CacheOption func(*LookupCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *LookupCache) { c.prefix = prefix }
}

// WithTTL sets the lifetime of positive results. Zero keeps them forever.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *LookupCache) { c.ttl = ttl }
}

// WithNegativeTTL sets the lifetime of misses and failures.
func WithNegativeTTL(ttl time.Duration) CacheOption {
	return func(c *LookupCache) { c.negativeTTL = ttl }
}

// LookupCache is an ontology.LookupCache shared between processes. Entries
// expire server-side, so Load and Flush have nothing to do.
type LookupCache struct {
	client      *Client
	logger      logging.Logger
	prefix      string
	ttl         time.Duration
	negativeTTL time.Duration
}

var _ ontology.LookupCache = (*LookupCache)(nil)

func NewLookupCache(client *Client, log logging.Logger, opts ...CacheOption) *LookupCache {
	c := &LookupCache{
		client:      client,
		logger:      logging.OrNop(log),
		prefix:      DefaultCachePrefix,
		ttl:         30 * 24 * time.Hour,
		negativeTTL: 7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LookupCache) fullKey(key string) string {
	return c.prefix + key
}

// jitterTTL spreads expiry by ±10%.
func (c *LookupCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *LookupCache) Get(ctx context.Context, key string) (ontology.CacheEntry, bool, error) {
	data, err := c.client.Cmd().Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return ontology.CacheEntry{}, false, nil
	}
	if err != nil {
		return ontology.CacheEntry{}, false, errors.Wrap(err, errors.ErrCodeCacheError, "lookup cache get failed").WithDetail(key)
	}
	var e ontology.CacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("dropping undecodable lookup cache entry", logging.String("key", key), logging.Err(err))
		return ontology.CacheEntry{}, false, nil
	}
	return e, true, nil
}

func (c *LookupCache) Set(ctx context.Context, key string, e ontology.CacheEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode lookup cache entry")
	}
	ttl := c.ttl
	if !e.Found {
		ttl = c.negativeTTL
	}
	if err := c.client.Cmd().Set(ctx, c.fullKey(key), data, c.jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "lookup cache set failed").WithDetail(key)
	}
	return nil
}

func (c *LookupCache) Load(context.Context) error  { return nil }
func (c *LookupCache) Flush(context.Context) error { return nil }

// Purge deletes every entry under the cache prefix and returns the count.
func (c *LookupCache) Purge(ctx context.Context) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)
	match := c.prefix + "*"
	for {
		keys, next, err := c.client.Cmd().Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "lookup cache scan failed")
		}
		if len(keys) > 0 {
			n, err := c.client.Cmd().Del(ctx, keys...).Result()
			if err != nil {
				return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "lookup cache delete failed")
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

//Personal.AI order the ending
