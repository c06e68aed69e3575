package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/order-tracker/internal/entity"
)

const cacheKeyPrefix = "price:"

// Cache keeps found prices between runs.
type Cache interface {
	Get(ctx context.Context, code string) (entity.PriceDetails, bool, error)
	Set(ctx context.Context, details entity.PriceDetails) error
}

// RedisCache stores price details as JSON with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, code string) (entity.PriceDetails, bool, error) {
	var out entity.PriceDetails
	raw, err := c.client.Get(ctx, cacheKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, err
	}
	return out, out.Found(), nil
}

// Set caches details that carry a price; misses are not cached.
func (c *RedisCache) Set(ctx context.Context, details entity.PriceDetails) error {
	if !details.Found() {
		return nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+details.ProductCode, raw, c.ttl).Err()
}
