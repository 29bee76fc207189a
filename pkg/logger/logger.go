// Package logger 建立 zap Logger，不提供全域實例，由呼叫端一路往下傳
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Env "development" 使用 console 格式，其餘為 JSON
	Env string `yaml:"env"`
	// Level debug / info / warn / error
	Level string `yaml:"level"`
	// Name logger 名稱 (服務名)
	Name string `yaml:"name"`
}

// New 依設定建立 Logger
//
// 參數:
//
//	cfg: 環境與等級
//
// 回傳:
//
//	*zap.Logger: 已設定好 level 與 encoder 的 logger
//	error: level 無法解析或建立失敗
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, fmt.Errorf("logger: invalid level %q: %w", cfg.Level, err)
		}
	}

	var zc zap.Config
	if cfg.Env == "development" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "time"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	log, err := zc.Build()
	if err != nil {
		return nil, err
	}
	if cfg.Name != "" {
		log = log.Named(cfg.Name)
	}
	return log, nil
}
