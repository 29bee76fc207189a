package usecase

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
)

// LedgerService 使用者端的帳務操作 (買、賣、提款) 與查詢
type LedgerService struct {
	store  Store
	prices PriceFeed
	log    *zap.Logger
}

func NewLedgerService(store Store, prices PriceFeed, log *zap.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		prices: prices,
		log:    log.Named("ledger"),
	}
}

// GetAccount 取得帳戶快照
func (s *LedgerService) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// Quote 目前報價，呼叫端未提供價格時使用
func (s *LedgerService) Quote(ctx context.Context) (decimal.Decimal, error) {
	if s.prices == nil {
		return decimal.Zero, domain.ErrPriceUnavailable
	}
	return s.prices.Current(ctx)
}

// Buy 買入資產
//
// 參數:
//
//	ctx: 上下文
//	accountID: 帳戶 ID
//	assetAmount: 買入數量
//	unitPrice: 單價 (外部報價或呼叫端提供)
//
// 回傳:
//
//	*domain.Account: 交易後的帳戶快照
//	*domain.Activity: trade{buy} 紀錄
//	error: ErrInvalidAmount / ErrInsufficientFunds / ErrAccountNotFound / ErrStorage
func (s *LedgerService) Buy(ctx context.Context, accountID int64, assetAmount, unitPrice decimal.Decimal) (*domain.Account, *domain.Activity, error) {
	acc, act, err := s.store.Mutate(ctx, accountID, func(a *domain.Account) (*domain.Activity, error) {
		return a.Buy(assetAmount, unitPrice)
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("trade executed",
		zap.Int64("account_id", accountID),
		zap.String("direction", string(domain.TradeBuy)),
		zap.Stringer("amount", assetAmount),
		zap.Stringer("price", unitPrice),
	)
	return acc, act, nil
}

// Sell 賣出資產，回傳值同 Buy (餘額不足時為 ErrInsufficientAsset)
func (s *LedgerService) Sell(ctx context.Context, accountID int64, assetAmount, unitPrice decimal.Decimal) (*domain.Account, *domain.Activity, error) {
	acc, act, err := s.store.Mutate(ctx, accountID, func(a *domain.Account) (*domain.Activity, error) {
		return a.Sell(assetAmount, unitPrice)
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("trade executed",
		zap.Int64("account_id", accountID),
		zap.String("direction", string(domain.TradeSell)),
		zap.Stringer("amount", assetAmount),
		zap.Stringer("price", unitPrice),
	)
	return acc, act, nil
}

// RequestWithdrawal 申請提款，現金立即扣除，紀錄狀態為 pending
func (s *LedgerService) RequestWithdrawal(ctx context.Context, accountID int64, amount decimal.Decimal, wallet string) (*domain.Account, *domain.Activity, error) {
	acc, act, err := s.store.Mutate(ctx, accountID, func(a *domain.Account) (*domain.Activity, error) {
		return a.Withdraw(amount, wallet)
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("withdrawal requested",
		zap.Int64("account_id", accountID),
		zap.Int64("withdrawal_id", act.ID),
		zap.Stringer("amount", amount),
	)
	return acc, act, nil
}

// ListActivity 帳戶自己的活動紀錄，由新到舊
func (s *LedgerService) ListActivity(ctx context.Context, accountID int64, kind domain.ActivityKind, limit int) ([]*domain.Activity, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.ListActivity(ctx, domain.ActivityFilter{AccountID: accountID, Kind: kind, Limit: limit})
}

// GetPortfolio 帳戶、最近 limit 筆活動，以及依目前報價計算的估值
//
// 報價失敗不影響回傳，估值只計現金。
func (s *LedgerService) GetPortfolio(ctx context.Context, accountID int64, limit int) (*domain.Portfolio, error) {
	acc, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	acts, err := s.store.ListActivity(ctx, domain.ActivityFilter{AccountID: accountID, Limit: limit})
	if err != nil {
		return nil, err
	}
	price, err := s.Quote(ctx)
	if err != nil {
		s.log.Warn("price unavailable, valuing cash only", zap.Error(err))
		price = decimal.Zero
	}
	return &domain.Portfolio{
		Account:   acc,
		Activity:  acts,
		UnitPrice: price,
		Valuation: acc.Valuation(price),
	}, nil
}

// ListNFTs 公開的 NFT 目錄
func (s *LedgerService) ListNFTs(ctx context.Context) ([]*domain.NFT, error) {
	return s.store.ListNFTs(ctx)
}
