package price

import (
	"context"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cache 最新報價的快取
type Cache interface {
	// Get 沒有值或已過期時 ok 為 false
	Get(ctx context.Context) (p decimal.Decimal, ok bool, err error)
	Set(ctx context.Context, p decimal.Decimal, ttl time.Duration) error
}

// MemoryCache 單一程序內的快取
type MemoryCache struct {
	mu      sync.RWMutex
	price   decimal.Decimal
	expires time.Time
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now}
}

func (c *MemoryCache) Get(ctx context.Context) (decimal.Decimal, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.expires.IsZero() || !c.now().Before(c.expires) {
		return decimal.Zero, false, nil
	}
	return c.price, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, p decimal.Decimal, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.price = p
	c.expires = c.now().Add(ttl)
	return nil
}

// RedisCache 多個實例共用同一個報價，key 的 TTL 交給 Redis 處理
type RedisCache struct {
	rdb goredis.UniversalClient
	key string
}

func NewRedisCache(rdb goredis.UniversalClient, key string) *RedisCache {
	if key == "" {
		key = "sim-trader:price"
	}
	return &RedisCache{rdb: rdb, key: key}
}

func (c *RedisCache) Get(ctx context.Context) (decimal.Decimal, bool, error) {
	s, err := c.rdb.Get(ctx, c.key).Result()
	if errors.Is(err, goredis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	p, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, err
	}
	return p, true, nil
}

func (c *RedisCache) Set(ctx context.Context, p decimal.Decimal, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key, p.String(), ttl).Err()
}
