package usecase

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Options 業務層可調參數
type Options struct {
	// StartingCash 新帳戶的起始現金
	StartingCash decimal.Decimal
	// BcryptCost 0 代表 bcrypt.DefaultCost，測試時可調低
	BcryptCost int
}

// Core 是核心業務邏輯層，組合所有 service 供 adapter 使用
type Core struct {
	Ledger  *LedgerService
	Auth    *AuthService
	Admin   *AdminService
	Support *SupportService
}

func NewCore(store Store, prices PriceFeed, opts Options, log *zap.Logger) *Core {
	support := NewSupportService(store)
	return &Core{
		Ledger:  NewLedgerService(store, prices, log),
		Auth:    NewAuthService(store, opts.StartingCash, opts.BcryptCost, log),
		Admin:   NewAdminService(store, support, log),
		Support: support,
	}
}
