// Package seed 建立示範帳號 (user1 / user2)，重複執行不會重建
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
)

// DemoAccount 示範帳號的目標餘額
type DemoAccount struct {
	Username string
	Cash     decimal.Decimal
	Asset    decimal.Decimal
}

// DefaultAccounts 示範資料
var DefaultAccounts = []DemoAccount{
	{Username: "user1", Cash: decimal.NewFromInt(5000), Asset: decimal.NewFromInt(1)},
	{Username: "user2", Cash: decimal.NewFromInt(3000), Asset: decimal.RequireFromString("0.5")},
}

// Run 以註冊 + 管理員調整的方式建立示範帳號
//
// 參數:
//
//	ctx: 上下文
//	core: 業務層
//	admin: 執行調整的管理員身分
//	password: 示範帳號共用密碼
//	accounts: 要建立的帳號
//
// 回傳:
//
//	int: 本次新建的帳號數
//	error: 任一步驟失敗
func Run(ctx context.Context, core *usecase.Core, admin domain.Principal, password string, accounts []DemoAccount, log *zap.Logger) (int, error) {
	created := 0
	for _, demo := range accounts {
		acc, err := core.Auth.Register(ctx, demo.Username, password)
		if errors.Is(err, domain.ErrUsernameTaken) {
			log.Debug("seed account exists, skipping", zap.String("username", demo.Username))
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed: register %s: %w", demo.Username, err)
		}
		cashDelta := demo.Cash.Sub(acc.Cash)
		assetDelta := demo.Asset.Sub(acc.Asset)
		if !cashDelta.IsZero() || !assetDelta.IsZero() {
			if _, _, err := core.Admin.Adjust(ctx, admin, acc.ID, cashDelta, assetDelta); err != nil {
				return created, fmt.Errorf("seed: adjust %s: %w", demo.Username, err)
			}
		}
		created++
		log.Info("seed account created",
			zap.String("username", demo.Username),
			zap.Stringer("cash", demo.Cash),
			zap.Stringer("asset", demo.Asset),
		)
	}
	return created, nil
}
