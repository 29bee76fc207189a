// Package config 讀取 config/config.yaml，再以 .env / TRADER_* 環境變數覆蓋敏感設定
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-sim-trader/pkg/mysql"
	"github.com/JoeShih716/go-sim-trader/pkg/postgres"
	"github.com/JoeShih716/go-sim-trader/pkg/redis"
	"github.com/JoeShih716/go-sim-trader/pkg/sqlite"
)

// StoreDriver 儲存實作
type StoreDriver string

const (
	DriverMemory   StoreDriver = "memory"
	DriverMySQL    StoreDriver = "mysql"
	DriverPostgres StoreDriver = "postgres"
	DriverSQLite   StoreDriver = "sqlite"
)

// Engine memory driver 的並行模型
type Engine string

const (
	EngineMutex Engine = "mutex"
	EngineLMAX  Engine = "lmax"
)

type Config struct {
	App      AppConfig       `yaml:"app"`
	Store    StoreConfig     `yaml:"store"`
	MySQL    mysql.Config    `yaml:"mysql"`
	Postgres postgres.Config `yaml:"postgres"`
	SQLite   sqlite.Config   `yaml:"sqlite"`
	Redis    redis.Config    `yaml:"redis"`
	Auth     AuthConfig      `yaml:"auth"`
	Ledger   LedgerConfig    `yaml:"ledger"`
	Admin    AdminConfig     `yaml:"admin"`
	Price    PriceConfig     `yaml:"price"`
	Seed     SeedConfig      `yaml:"seed"`
}

type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
	LogLevel string `yaml:"log_level"`
	// ShutdownTimeout 關閉時等待進行中請求的時間
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver StoreDriver `yaml:"driver"`
	Engine Engine      `yaml:"engine"`
	// WALPath memory driver 的 WAL 檔，空字串代表不落地
	WALPath string `yaml:"wal_path"`
	// LMAXBuffer LMAX 輸送帶長度
	LMAXBuffer int `yaml:"lmax_buffer"`
	// AutoMigrate gorm driver 啟動時建立資料表
	AutoMigrate bool `yaml:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type LedgerConfig struct {
	// StartingCash 新註冊帳戶的起始現金
	StartingCash decimal.Decimal `yaml:"starting_cash"`
	AssetSymbol  string          `yaml:"asset_symbol"`
}

// AdminConfig 營運帳號，密碼只從設定或環境變數取得
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type PriceConfig struct {
	// Source static / coingecko / coindesk
	Source      string          `yaml:"source"`
	StaticPrice decimal.Decimal `yaml:"static_price"`
	URL         string          `yaml:"url"`
	CoinID      string          `yaml:"coin_id"`
	VsCurrency  string          `yaml:"vs_currency"`
	CacheTTL    time.Duration   `yaml:"cache_ttl"`
	CacheKey    string          `yaml:"cache_key"`
}

type SeedConfig struct {
	Enabled bool `yaml:"enabled"`
	// Password 示範帳號共用的密碼
	Password string `yaml:"password"`
}

// Load 讀取設定檔並套用環境變數與預設值
//
// 參數:
//
//	path: yaml 檔路徑，檔案不存在時只使用預設值與環境變數
//
// 回傳:
//
//	*Config: 完整設定
//	error: 檔案格式錯誤或設定值不合法
func Load(path string) (*Config, error) {
	// .env 是選用的
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv TRADER_* 環境變數覆蓋 yaml
func (c *Config) applyEnv() error {
	str := map[string]*string{
		"TRADER_ENV":               &c.App.Env,
		"TRADER_HTTP_ADDR":         &c.App.HTTPAddr,
		"TRADER_GRPC_ADDR":         &c.App.GRPCAddr,
		"TRADER_LOG_LEVEL":         &c.App.LogLevel,
		"TRADER_WAL_PATH":          &c.Store.WALPath,
		"TRADER_JWT_SECRET":        &c.Auth.JWTSecret,
		"TRADER_ADMIN_USERNAME":    &c.Admin.Username,
		"TRADER_ADMIN_PASSWORD":    &c.Admin.Password,
		"TRADER_MYSQL_PASSWORD":    &c.MySQL.Password,
		"TRADER_POSTGRES_PASSWORD": &c.Postgres.Password,
		"TRADER_REDIS_ADDR":        &c.Redis.Addr,
		"TRADER_REDIS_PASSWORD":    &c.Redis.Password,
		"TRADER_PRICE_SOURCE":      &c.Price.Source,
		"TRADER_SEED_PASSWORD":     &c.Seed.Password,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("TRADER_STORE_DRIVER"); ok {
		c.Store.Driver = StoreDriver(v)
	}
	if v, ok := os.LookupEnv("TRADER_STORE_ENGINE"); ok {
		c.Store.Engine = Engine(v)
	}
	if v, ok := os.LookupEnv("TRADER_STARTING_CASH"); ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("config: TRADER_STARTING_CASH: %w", err)
		}
		c.Ledger.StartingCash = d
	}
	if v, ok := os.LookupEnv("TRADER_SEED_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: TRADER_SEED_ENABLED: %w", err)
		}
		c.Seed.Enabled = b
	}
	return nil
}

// setDefaults 補全 yaml 沒寫的設定
func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "sim-trader"
	}
	if c.App.Env == "" {
		c.App.Env = "production"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8080"
	}
	if c.App.GRPCAddr == "" {
		c.App.GRPCAddr = ":50051"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.ShutdownTimeout == 0 {
		c.App.ShutdownTimeout = 10 * time.Second
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	if c.Store.Engine == "" {
		c.Store.Engine = EngineMutex
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Ledger.StartingCash.IsZero() {
		c.Ledger.StartingCash = decimal.NewFromInt(10000)
	}
	if c.Ledger.AssetSymbol == "" {
		c.Ledger.AssetSymbol = "BTC"
	}
	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
	}
	if c.Price.Source == "" {
		c.Price.Source = "static"
	}
	if c.Price.StaticPrice.IsZero() {
		c.Price.StaticPrice = decimal.NewFromInt(30000)
	}
	if c.Price.CacheTTL == 0 {
		c.Price.CacheTTL = 10 * time.Second
	}
	c.MySQL.SetDefaults()
	c.Postgres.SetDefaults()
}

// Validate 檢查設定值組合
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	switch c.Store.Engine {
	case EngineMutex, EngineLMAX:
	default:
		return fmt.Errorf("config: unknown store.engine %q", c.Store.Engine)
	}
	switch c.Price.Source {
	case "static", "coingecko", "coindesk":
	default:
		return fmt.Errorf("config: unknown price.source %q", c.Price.Source)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret (TRADER_JWT_SECRET) is required")
	}
	if c.Ledger.StartingCash.IsNegative() {
		return errors.New("config: ledger.starting_cash must not be negative")
	}
	return nil
}
