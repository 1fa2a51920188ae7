package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "chart:version"

// Cache wraps redis-based caching of the chart of accounts with a
// version counter bumped on every account creation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

func (c *Cache) key(ctx context.Context, companyID int64) (string, error) {
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("chart:v%d:company:%d", ver, companyID), nil
}

// Get returns the cached chart for a company, or false on a miss.
func (c *Cache) Get(ctx context.Context, companyID int64) ([]Account, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	key, err := c.key(ctx, companyID)
	if err != nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var chart []Account
	if err := json.Unmarshal(payload, &chart); err != nil {
		return nil, false
	}
	return chart, true
}

// Set stores the chart for a company under the current version.
func (c *Cache) Set(ctx context.Context, companyID int64, chart []Account) error {
	if c == nil || c.client == nil {
		return nil
	}
	key, err := c.key(ctx, companyID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(chart)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Bump invalidates all cached charts by advancing the version counter.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
