// Package cache wraps a DocumentStore with a redis read-through cache for single
// document lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/config"
	"github.com/Capstone-E1/aquahealth_backend/internal/store"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NewRedisClient creates a redis client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// CachedStore caches Get results by collection and id. Find and Count always hit the
// wrapped store.
type CachedStore struct {
	next        store.DocumentStore
	redisClient *redis.Client
	ttl         time.Duration
	prefix      string
	logger      *zap.Logger
}

// NewCachedStore wraps next with a redis cache
func NewCachedStore(next store.DocumentStore, redisClient *redis.Client, ttl time.Duration, prefix string, logger *zap.Logger) *CachedStore {
	return &CachedStore{
		next:        next,
		redisClient: redisClient,
		ttl:         ttl,
		prefix:      prefix,
		logger:      logger,
	}
}

// Collection returns a caching view of the named collection
func (s *CachedStore) Collection(name string) store.Collection {
	return &cachedCollection{parent: s, name: name, next: s.next.Collection(name)}
}

// Ping checks both the wrapped store and redis
func (s *CachedStore) Ping(ctx context.Context) error {
	if err := s.next.Ping(ctx); err != nil {
		return err
	}
	return s.redisClient.Ping(ctx).Err()
}

// Close closes the wrapped store and the redis client
func (s *CachedStore) Close() error {
	err := s.next.Close()
	if cerr := s.redisClient.Close(); err == nil {
		err = cerr
	}
	return err
}

type cachedCollection struct {
	parent *CachedStore
	name   string
	next   store.Collection
}

// errStaleFill aborts a fill whose document was written after it was read
var errStaleFill = errors.New("document changed while filling cache")

func (c *cachedCollection) key(id string) string {
	return fmt.Sprintf("%s:%s:%s", c.parent.prefix, c.name, id)
}

// versionKey is bumped by every write so in-flight fills can detect they are stale
func (c *cachedCollection) versionKey(id string) string {
	return c.key(id) + ":version"
}

// Redis failures never fail a request; the wrapped store stays authoritative.
func (c *cachedCollection) Get(ctx context.Context, id string) (store.Document, error) {
	key := c.key(id)

	val, err := c.parent.redisClient.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var doc store.Document
		if jerr := json.Unmarshal(val, &doc); jerr == nil {
			return doc, nil
		}
		c.parent.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.parent.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}

	// read before the store so a write landing in between changes it
	version, verr := c.parent.redisClient.Get(ctx, c.versionKey(id)).Result()
	cacheable := verr == nil || errors.Is(verr, redis.Nil)

	doc, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if cacheable {
		c.fill(ctx, id, version, doc)
	}
	return doc, nil
}

// fill stores doc only while the version key still reads version
func (c *cachedCollection) fill(ctx context.Context, id, version string, doc store.Document) {
	key, verKey := c.key(id), c.versionKey(id)
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}

	err = c.parent.redisClient.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, verKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.parent.ttl)
			return nil
		})
		return err
	}, verKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		c.parent.logger.Debug("Skipped stale cache fill", zap.String("key", key))
	default:
		c.parent.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *cachedCollection) invalidate(ctx context.Context, id string) {
	key, verKey := c.key(id), c.versionKey(id)
	_, err := c.parent.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, verKey)
		if c.parent.ttl > 0 {
			pipe.Expire(ctx, verKey, c.parent.ttl)
		}
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		c.parent.logger.Warn("Cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *cachedCollection) Insert(ctx context.Context, id string, doc store.Document) error {
	if err := c.next.Insert(ctx, id, doc); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *cachedCollection) Replace(ctx context.Context, id string, doc store.Document) error {
	defer c.invalidate(ctx, id)
	return c.next.Replace(ctx, id, doc)
}

func (c *cachedCollection) Patch(ctx context.Context, id string, fields store.Document) error {
	defer c.invalidate(ctx, id)
	return c.next.Patch(ctx, id, fields)
}

func (c *cachedCollection) Delete(ctx context.Context, id string) error {
	defer c.invalidate(ctx, id)
	return c.next.Delete(ctx, id)
}

func (c *cachedCollection) Find(ctx context.Context, q store.Query) ([]store.Document, error) {
	return c.next.Find(ctx, q)
}

func (c *cachedCollection) Count(ctx context.Context, filters ...store.Filter) (int, error) {
	return c.next.Count(ctx, filters...)
}
