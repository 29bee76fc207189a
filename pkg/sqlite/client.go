// Package sqlite 單機開發用的 SQLite 連線 (cgo)
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-sim-trader/pkg/mysql"
)

type Config struct {
	// Path 資料庫檔案，":memory:" 為記憶體模式
	Path     string `yaml:"path"`
	LogLevel string `yaml:"log_level"`
}

// Open 開啟 SQLite，只使用一條連線讓交易依序執行
func Open(cfg Config) (*gorm.DB, error) {
	if cfg.Path == "" {
		cfg.Path = ":memory:"
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		TranslateError: true,
		Logger:         mysql.NewGormLogger(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
