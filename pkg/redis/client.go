package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// Enabled 沒有設定位址時不使用 Redis
func (c Config) Enabled() bool {
	return c.Addr != ""
}

// Connect 建立 client 並 Ping 確認可用
func Connect(ctx context.Context, cfg Config) (goredis.UniversalClient, error) {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 20
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     time.Second,
		ReadTimeout:     400 * time.Millisecond,
		WriteTimeout:    400 * time.Millisecond,
		PoolSize:        cfg.PoolSize,
		ConnMaxIdleTime: 90 * time.Second,
		OnConnect: func(ctx context.Context, cn *goredis.Conn) error {
			// 方便在 CLIENT LIST 追蹤
			_ = cn.ClientSetName(ctx, "sim-trader").Err()
			return nil
		},
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
