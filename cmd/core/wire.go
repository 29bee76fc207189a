package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/adapter/out/gormstore"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
	"github.com/JoeShih716/go-sim-trader/internal/config"
	"github.com/JoeShih716/go-sim-trader/pkg/mysql"
	"github.com/JoeShih716/go-sim-trader/pkg/postgres"
	"github.com/JoeShih716/go-sim-trader/pkg/price"
	"github.com/JoeShih716/go-sim-trader/pkg/redis"
	"github.com/JoeShih716/go-sim-trader/pkg/sqlite"
	"github.com/JoeShih716/go-sim-trader/pkg/wal"
)

// cleanup 依建立的相反順序釋放資源
type cleanup []func()

func (c *cleanup) add(fn func()) {
	*c = append(*c, fn)
}

func (c cleanup) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// openStore 依 store.driver 建立 Store
//
// memory driver 再依 store.engine 選 Mutex 或 LMAX；gorm 系列共用 gormstore。
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger, release *cleanup) (usecase.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return openMemoryStore(cfg, log, release)
	case config.DriverMySQL:
		client, err := mysql.NewClient(ctx, cfg.MySQL, log)
		if err != nil {
			return nil, err
		}
		release.add(func() { _ = client.Close() })
		return openGormStore(ctx, cfg, client.DB())
	case config.DriverPostgres:
		client, err := postgres.NewClient(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, err
		}
		release.add(func() { _ = client.Close() })
		return openGormStore(ctx, cfg, client.DB())
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLite)
		if err != nil {
			return nil, err
		}
		release.add(func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		// SQLite 通常是本機開發，一律建表
		store := gormstore.New(db)
		if err := store.AutoMigrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openGormStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (usecase.Store, error) {
	store := gormstore.New(db)
	if cfg.Store.AutoMigrate {
		if err := store.AutoMigrate(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func openMemoryStore(cfg *config.Config, log *zap.Logger, release *cleanup) (usecase.Store, error) {
	var w *wal.WAL
	if cfg.Store.WALPath != "" {
		var err error
		if w, err = wal.Open(cfg.Store.WALPath); err != nil {
			return nil, fmt.Errorf("open wal: %w", err)
		}
		release.add(func() {
			if err := w.Close(); err != nil {
				log.Error("close wal failed", zap.Error(err))
			}
		})
	} else {
		log.Warn("store.wal_path is empty, memory store will not survive restarts")
	}

	switch cfg.Store.Engine {
	case config.EngineLMAX:
		store, err := memory.NewLMAXStore(w, cfg.Store.LMAXBuffer)
		if err != nil {
			return nil, err
		}
		// 引擎用獨立的 context，等 server 都停了才停止寫入
		engineCtx, stop := context.WithCancel(context.Background())
		store.Start(engineCtx)
		release.add(func() {
			stop()
			<-store.Done()
		})
		return store, nil
	default:
		return memory.NewMutexStore(w)
	}
}

// newPriceFeed 報價來源 + 快取 (有設定 Redis 時使用 Redis)
func newPriceFeed(ctx context.Context, cfg *config.Config, log *zap.Logger, release *cleanup) (*price.Feed, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	var source price.Source
	switch cfg.Price.Source {
	case "coingecko":
		source = price.NewCoinGeckoSource(cfg.Price.URL, cfg.Price.CoinID, cfg.Price.VsCurrency, client)
	case "coindesk":
		source = price.NewCoinDeskSource(cfg.Price.URL, cfg.Price.VsCurrency, client)
	default:
		source = price.StaticSource{Price: cfg.Price.StaticPrice}
	}

	var cache price.Cache = price.NewMemoryCache()
	if cfg.Redis.Enabled() {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		release.add(func() { _ = rdb.Close() })
		cache = price.NewRedisCache(rdb, cfg.Price.CacheKey)
		log.Info("price cache uses redis", zap.String("addr", cfg.Redis.Addr))
	}

	log.Info("price feed ready", zap.String("source", source.Name()), zap.Duration("cache_ttl", cfg.Price.CacheTTL))
	return price.NewFeed(source, cache, cfg.Price.CacheTTL, log), nil
}
