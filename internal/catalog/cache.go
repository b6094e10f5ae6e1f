package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// Cache keeps location pools in Redis so session creation does not hit the
// database for every game. Pools are read-only from this core's perspective,
// so a short TTL is enough.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ PoolCache = (*Cache)(nil)

// NewCache builds a pool cache with the given TTL (<=0 uses the default).
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(gameType string) string {
	return "catalog:pool:" + gameType
}

// Get returns the cached pool, or nil on a miss.
func (c *Cache) Get(ctx context.Context, gameType string) ([]Location, error) {
	data, err := c.client.Get(ctx, c.key(gameType)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var pool []Location
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// Set stores the pool under the game-type key.
func (c *Cache) Set(ctx context.Context, gameType string, pool []Location) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(gameType), data, c.ttl).Err()
}
