// Package cache keeps resolved option ids in Redis so repeated label
// lookups skip the catalog.
package cache

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/reveald/facetbridge"
	"github.com/sirupsen/logrus"
)

const (
	defaultPrefix = "facetbridge:options"
	defaultTTL    = time.Hour
)

// OptionCache is an OptionLookup storing the ids resolved by another
// lookup in one Redis hash per attribute, keyed "<prefix>:<code>".
//
// Unresolved labels are not cached. Redis failures are logged and the
// inner lookup is used instead.
//
// Example:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	lookup := cache.NewOptionCache(rdb, facetbridge.NewOptionResolver(catalog),
//	    cache.WithTTL(10*time.Minute))
type OptionCache struct {
	client redis.Cmdable
	inner  facetbridge.OptionLookup
	prefix string
	ttl    time.Duration
	logger logrus.FieldLogger
}

// Option configures an OptionCache.
type Option func(*OptionCache)

// WithPrefix sets the key prefix (default "facetbridge:options").
func WithPrefix(prefix string) Option {
	return func(c *OptionCache) {
		c.prefix = prefix
	}
}

// WithTTL sets the expiry of an attribute hash, refreshed on every write.
// Zero keeps entries until invalidated.
func WithTTL(ttl time.Duration) Option {
	return func(c *OptionCache) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger receiving cache failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *OptionCache) {
		c.logger = logger
	}
}

// NewOptionCache returns an OptionCache in front of inner, stored in client.
func NewOptionCache(client redis.Cmdable, inner facetbridge.OptionLookup, opts ...Option) *OptionCache {
	l := logrus.New()
	l.SetOutput(io.Discard)

	c := &OptionCache{
		client: client,
		inner:  inner,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
		logger: l,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *OptionCache) key(code string) string {
	return c.prefix + ":" + code
}

// OptionIDByLabel implements facetbridge.OptionLookup.
func (c *OptionCache) OptionIDByLabel(ctx context.Context, attributeCode, label string) (string, error) {
	key := c.key(attributeCode)

	id, err := c.client.HGet(ctx, key, label).Result()
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WithError(err).WithField("key", key).Warn("option cache read failed")
	}

	id, err = c.inner.OptionIDByLabel(ctx, attributeCode, label)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", nil
	}

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, label, id)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("option cache write failed")
	}

	return id, nil
}

// Invalidate drops the cached ids of an attribute.
func (c *OptionCache) Invalidate(ctx context.Context, attributeCode string) error {
	return c.client.Del(ctx, c.key(attributeCode)).Err()
}
