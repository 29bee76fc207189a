// Package price 取得模擬資產的即時單價: 外部來源 + 快取 + 最後已知價格
package price

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Feed 對外只提供 Current，實作 usecase.PriceFeed
//
// 順序: 快取 -> 來源 -> 來源失敗時使用最後一次成功的價格。
type Feed struct {
	source Source
	cache  Cache
	ttl    time.Duration
	log    *zap.Logger

	mu        sync.Mutex
	lastKnown decimal.Decimal
}

// NewFeed cache 為 nil 時使用 MemoryCache，ttl <= 0 時為 10 秒
func NewFeed(source Source, cache Cache, ttl time.Duration, log *zap.Logger) *Feed {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Feed{
		source: source,
		cache:  cache,
		ttl:    ttl,
		log:    log.Named("price"),
	}
}

// Current 目前單價，一定是正數
func (f *Feed) Current(ctx context.Context) (decimal.Decimal, error) {
	p, ok, err := f.cache.Get(ctx)
	if err != nil {
		f.log.Warn("price cache get failed", zap.Error(err))
	}
	if ok && p.IsPositive() {
		return p, nil
	}

	p, err = f.source.Fetch(ctx)
	if err != nil {
		f.mu.Lock()
		last := f.lastKnown
		f.mu.Unlock()
		if last.IsPositive() {
			f.log.Warn("price source failed, using last known price",
				zap.String("source", f.source.Name()),
				zap.Stringer("price", last),
				zap.Error(err),
			)
			return last, nil
		}
		return decimal.Zero, err
	}
	if !p.IsPositive() {
		return decimal.Zero, ErrNoPrice
	}

	f.mu.Lock()
	f.lastKnown = p
	f.mu.Unlock()
	if err := f.cache.Set(ctx, p, f.ttl); err != nil {
		f.log.Warn("price cache set failed", zap.Error(err))
	}
	return p, nil
}
