package cache

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// PriceCache memoizes resolved prices in Redis with a TTL. Cache failures
// are logged and treated as misses so pricing lookups never depend on Redis
// being up.
type PriceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPriceCache(client *redis.Client, ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PriceCache{client: client, ttl: ttl}
}

func (c *PriceCache) GetPrice(ctx context.Context, key string) (float64, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		log.Printf("price cache get %s: %v", key, err)
		return 0, false
	}

	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("price cache parse %s: %v", key, err)
		return 0, false
	}
	return price, true
}

func (c *PriceCache) SetPrice(ctx context.Context, key string, price float64) {
	val := strconv.FormatFloat(price, 'f', -1, 64)
	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		log.Printf("price cache set %s: %v", key, err)
	}
}
