// internal/product/cache.go
package product

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/common/logger"
	"storefront/internal/common/metrics"
	"storefront/internal/models"
)

const cacheKeyPrefix = "product:"

// CachedSource is a read-through Redis cache in front of another Source.
// Products never change for a given id, so entries only expire by TTL.
// Redis failures are logged and the lookup falls through to the next source.
type CachedSource struct {
	next   Source
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(next Source, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{
		next:   next,
		redis:  client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "product-cache"}),
	}
}

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

func (c *CachedSource) FindByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	found := make(map[string]models.Product, len(ids))
	var misses []string

	for _, id := range ids {
		p, ok := c.get(ctx, id)
		if ok {
			found[id] = p
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := c.next.FindByIDs(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, p := range fetched {
			found[p.ID] = p
			c.set(ctx, p)
		}
	}

	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *CachedSource) get(ctx context.Context, id string) (models.Product, bool) {
	var p models.Product

	data, err := c.redis.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ProductCacheLookups.WithLabelValues("miss").Inc()
		return p, false
	}
	if err != nil {
		metrics.ProductCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("cache read failed", map[string]interface{}{
			"productId": id,
			"error":     err,
		})
		return p, false
	}

	if err := json.Unmarshal(data, &p); err != nil || p.ID != id {
		metrics.ProductCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("discarding unreadable cache entry", map[string]interface{}{
			"productId": id,
		})
		return models.Product{}, false
	}

	metrics.ProductCacheLookups.WithLabelValues("hit").Inc()
	return p, true
}

func (c *CachedSource) set(ctx context.Context, p models.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(p.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"productId": p.ID,
			"error":     err,
		})
	}
}
