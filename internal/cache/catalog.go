// Package cache provides a Redis read-through cache in front of the
// product catalog. Till lookups hit the same few products all day; the
// cache keeps those reads off the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/dukapos/dukapos/internal/domain/product"
)

// Config holds Redis connection settings for the catalog cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

var _ product.Repository = (*CatalogCache)(nil)

// CatalogCache decorates a product.Repository, caching GetByID results in
// Redis and invalidating on writes. List is always served from the
// underlying repository; filtered queries don't repeat enough to cache.
type CatalogCache struct {
	next   product.Repository
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache wraps next with a Redis-backed cache.
func NewCatalogCache(next product.Repository, cfg Config) *CatalogCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogCache{
		next: next,
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: ttl,
	}
}

// Ping checks Redis connectivity, for readiness probes.
func (c *CatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (c *CatalogCache) Close() error {
	return c.client.Close()
}

func key(id int64) string {
	return fmt.Sprintf("catalog:product:%d", id)
}

// GetByID returns a cached product when fresh, falling back to the
// repository. Cache errors degrade to a plain repository read.
func (c *CatalogCache) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	val, err := c.client.Get(ctx, key(id)).Result()
	if err == nil {
		var p product.Product
		if jsonErr := json.Unmarshal([]byte(val), &p); jsonErr == nil {
			return &p, nil
		}
	}

	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(p); jsonErr == nil {
		// Best effort: a failed SET just means the next read misses.
		_ = c.client.Set(ctx, key(id), payload, c.ttl).Err()
	}
	return p, nil
}

// List passes through to the repository.
func (c *CatalogCache) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	return c.next.List(ctx, f)
}

// Create passes through; nothing to invalidate for a new id.
func (c *CatalogCache) Create(ctx context.Context, p *product.Product) error {
	return c.next.Create(ctx, p)
}

// Update writes through and drops the cached entry.
func (c *CatalogCache) Update(ctx context.Context, p *product.Product) error {
	if err := c.next.Update(ctx, p); err != nil {
		return err
	}
	_ = c.client.Del(ctx, key(p.ID)).Err()
	return nil
}

// Delete writes through and drops the cached entry.
func (c *CatalogCache) Delete(ctx context.Context, id int64) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	_ = c.client.Del(ctx, key(id)).Err()
	return nil
}

// Invalidate drops the cached entries for the given products. Called
// after a sale commits, since their stock changed.
func (c *CatalogCache) Invalidate(ctx context.Context, ids ...int64) {
	for _, id := range ids {
		_ = c.client.Del(ctx, key(id)).Err()
	}
}
