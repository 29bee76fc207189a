package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActivityKind 活動紀錄種類
type ActivityKind string

const (
	// 買賣
	KindTrade ActivityKind = "trade"
	// 提款
	KindWithdrawal ActivityKind = "withdrawal"
	// 管理員加減餘額
	KindTopUp ActivityKind = "topup"
)

// ParseActivityKind 空字串代表不過濾
func ParseActivityKind(s string) (ActivityKind, error) {
	switch k := ActivityKind(s); k {
	case "", KindTrade, KindWithdrawal, KindTopUp:
		return k, nil
	default:
		return "", fmt.Errorf("unknown activity kind %q", s)
	}
}

type TradeDirection string

const (
	TradeBuy  TradeDirection = "buy"
	TradeSell TradeDirection = "sell"
)

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
)

// Activity 帳務稽核紀錄，依 Kind 只會有一個 variant 不為 nil
//
// 建立後不可修改，唯一例外是 Withdrawal.Status 可以由 pending 轉為 approved 一次。
type Activity struct {
	// ID: 由 Store 分配，全局遞增
	ID int64 `json:"id"`
	// RefID: 外部追蹤號
	RefID     uuid.UUID    `json:"ref_id"`
	AccountID int64        `json:"account_id"`
	Kind      ActivityKind `json:"kind"`
	CreatedAt time.Time    `json:"created_at"`

	Trade      *Trade      `json:"trade,omitempty"`
	Withdrawal *Withdrawal `json:"withdrawal,omitempty"`
	TopUp      *TopUp      `json:"topup,omitempty"`
}

type Trade struct {
	Direction   TradeDirection  `json:"direction"`
	AssetAmount decimal.Decimal `json:"asset_amount"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type Withdrawal struct {
	Amount     decimal.Decimal  `json:"amount"`
	Wallet     string           `json:"wallet"`
	Status     WithdrawalStatus `json:"status"`
	ApprovedAt *time.Time       `json:"approved_at,omitempty"`
}

type TopUp struct {
	CashDelta  decimal.Decimal `json:"cash_delta"`
	AssetDelta decimal.Decimal `json:"asset_delta"`
	OperatorID int64           `json:"operator_id"`
}

func newActivity(accountID int64, kind ActivityKind) *Activity {
	return &Activity{
		RefID:     uuid.New(),
		AccountID: accountID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}

func newTradeActivity(accountID int64, dir TradeDirection, amount, price decimal.Decimal) *Activity {
	a := newActivity(accountID, KindTrade)
	a.Trade = &Trade{Direction: dir, AssetAmount: amount, UnitPrice: price}
	return a
}

func newWithdrawalActivity(accountID int64, amount decimal.Decimal, wallet string) *Activity {
	a := newActivity(accountID, KindWithdrawal)
	a.Withdrawal = &Withdrawal{Amount: amount, Wallet: wallet, Status: WithdrawalPending}
	return a
}

func newTopUpActivity(accountID int64, cashDelta, assetDelta decimal.Decimal, operatorID int64) *Activity {
	a := newActivity(accountID, KindTopUp)
	a.TopUp = &TopUp{CashDelta: cashDelta, AssetDelta: assetDelta, OperatorID: operatorID}
	return a
}

// Approve 將提款由 pending 轉為 approved
//
// 回傳:
//
//	bool: 狀態是否真的有變更 (已核准過則為 false)
//	error: 不是提款紀錄時 ErrNotWithdrawal
func (a *Activity) Approve(now time.Time) (bool, error) {
	if a.Kind != KindWithdrawal || a.Withdrawal == nil {
		return false, ErrNotWithdrawal
	}
	if a.Withdrawal.Status == WithdrawalApproved {
		return false, nil
	}
	a.Withdrawal.Status = WithdrawalApproved
	a.Withdrawal.ApprovedAt = &now
	return true, nil
}

// Clone 深拷貝，variant 也會複製
func (a *Activity) Clone() *Activity {
	c := *a
	if a.Trade != nil {
		t := *a.Trade
		c.Trade = &t
	}
	if a.Withdrawal != nil {
		w := *a.Withdrawal
		if w.ApprovedAt != nil {
			at := *w.ApprovedAt
			w.ApprovedAt = &at
		}
		c.Withdrawal = &w
	}
	if a.TopUp != nil {
		t := *a.TopUp
		c.TopUp = &t
	}
	return &c
}

// ActivityFilter 查詢條件，零值代表不過濾
type ActivityFilter struct {
	AccountID int64
	Kind      ActivityKind
	// Limit <= 0 代表全部
	Limit int
}

// Match 判斷紀錄是否符合條件 (不含 Limit)
func (f ActivityFilter) Match(a *Activity) bool {
	if f.AccountID != 0 && a.AccountID != f.AccountID {
		return false
	}
	if f.Kind != "" && a.Kind != f.Kind {
		return false
	}
	return true
}
