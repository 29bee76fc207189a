package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Scale 金額與資產數量的小數位數，與資料庫欄位 decimal(32,8) 一致
const Scale = 8

// Role 帳戶角色
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account 一個使用者 (或管理員) 的餘額紀錄
//
// 不變量: Cash >= 0 且 Asset >= 0，每個操作結束後都必須成立。
type Account struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Cash         decimal.Decimal `json:"cash"`
	Asset        decimal.Decimal `json:"asset"`
	Role         Role            `json:"role"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewAccount 建立新帳戶，資產為 0，現金為起始金額
func NewAccount(username, passwordHash string, startingCash decimal.Decimal, role Role) *Account {
	now := time.Now().UTC()
	return &Account{
		Username:     username,
		PasswordHash: passwordHash,
		Cash:         startingCash.Round(Scale),
		Asset:        decimal.Zero,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsAdmin 是否為管理員
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Clone 回傳一份副本，讓呼叫端可以放心修改
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// Buy 以 unitPrice 買入 assetAmount 單位資產
//
// 參數:
//
//	assetAmount: 買入數量，必須 > 0
//	unitPrice: 單價，必須 > 0
//
// 回傳:
//
//	*Activity: trade{buy} 紀錄 (尚未分配 ID)
//	error: ErrInvalidAmount / ErrInsufficientFunds，失敗時帳戶不變
func (a *Account) Buy(assetAmount, unitPrice decimal.Decimal) (*Activity, error) {
	assetAmount, unitPrice = assetAmount.Round(Scale), unitPrice.Round(Scale)
	if !assetAmount.IsPositive() || !unitPrice.IsPositive() {
		return nil, ErrInvalidAmount
	}
	cost := assetAmount.Mul(unitPrice).Round(Scale)
	// 成本低於最小精度會變成 0，等於免費拿到資產
	if !cost.IsPositive() {
		return nil, ErrInvalidAmount
	}
	// 餘額剛好等於成本時允許
	if a.Cash.LessThan(cost) {
		return nil, ErrInsufficientFunds
	}
	a.Cash = a.Cash.Sub(cost)
	a.Asset = a.Asset.Add(assetAmount)
	return newTradeActivity(a.ID, TradeBuy, assetAmount, unitPrice), nil
}

// Sell 以 unitPrice 賣出 assetAmount 單位資產
//
// 參數:
//
//	assetAmount: 賣出數量，必須 > 0
//	unitPrice: 單價，必須 > 0
//
// 回傳:
//
//	*Activity: trade{sell} 紀錄
//	error: ErrInvalidAmount / ErrInsufficientAsset
func (a *Account) Sell(assetAmount, unitPrice decimal.Decimal) (*Activity, error) {
	assetAmount, unitPrice = assetAmount.Round(Scale), unitPrice.Round(Scale)
	if !assetAmount.IsPositive() || !unitPrice.IsPositive() {
		return nil, ErrInvalidAmount
	}
	proceeds := assetAmount.Mul(unitPrice).Round(Scale)
	if !proceeds.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if a.Asset.LessThan(assetAmount) {
		return nil, ErrInsufficientAsset
	}
	a.Asset = a.Asset.Sub(assetAmount)
	a.Cash = a.Cash.Add(proceeds)
	return newTradeActivity(a.ID, TradeSell, assetAmount, unitPrice), nil
}

// Withdraw 申請提款，現金在申請當下就扣除，核准時不再動帳
func (a *Account) Withdraw(amount decimal.Decimal, wallet string) (*Activity, error) {
	amount = amount.Round(Scale)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, ErrInvalidWallet
	}
	if a.Cash.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}
	a.Cash = a.Cash.Sub(amount)
	return newWithdrawalActivity(a.ID, amount, wallet), nil
}

// Adjust 管理員調整餘額，delta 可以為負 (reduce)，但結果仍不可為負
//
// 參數:
//
//	cashDelta: 現金增減
//	assetDelta: 資產增減
//	operatorID: 執行操作的管理員帳戶 ID
//
// 回傳:
//
//	*Activity: topup 紀錄，保留帶正負號的 delta
//	error: 兩個 delta 皆為 0 時 ErrInvalidAmount；會變成負數時 ErrInsufficientFunds / ErrInsufficientAsset
func (a *Account) Adjust(cashDelta, assetDelta decimal.Decimal, operatorID int64) (*Activity, error) {
	cashDelta, assetDelta = cashDelta.Round(Scale), assetDelta.Round(Scale)
	if cashDelta.IsZero() && assetDelta.IsZero() {
		return nil, ErrInvalidAmount
	}
	cash := a.Cash.Add(cashDelta)
	if cash.IsNegative() {
		return nil, ErrInsufficientFunds
	}
	asset := a.Asset.Add(assetDelta)
	if asset.IsNegative() {
		return nil, ErrInsufficientAsset
	}
	a.Cash, a.Asset = cash, asset
	return newTopUpActivity(a.ID, cashDelta, assetDelta, operatorID), nil
}

// Valuation 以 unitPrice 計算帳戶總值 (現金 + 資產市值)
func (a *Account) Valuation(unitPrice decimal.Decimal) decimal.Decimal {
	return a.Cash.Add(a.Asset.Mul(unitPrice)).Round(Scale)
}

// NormalizeUsername 去除前後空白並檢查長度
//
// 回傳:
//
//	string: 顯示用名稱
//	string: 唯一性比對用的 key (小寫)
//	error: ErrInvalidUsername
func NormalizeUsername(username string) (string, string, error) {
	username = strings.TrimSpace(username)
	n := utf8.RuneCountInString(username)
	if n < 3 || n > 32 {
		return "", "", ErrInvalidUsername
	}
	return username, UsernameKey(username), nil
}

// UsernameKey 使用者名稱比對 key，大小寫不敏感
func UsernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Principal 呼叫端的身分聲明，由傳輸層驗證後傳入
type Principal struct {
	AccountID int64 `json:"account_id"`
	Role      Role  `json:"role"`
}

// Portfolio 帳戶、近期活動與估值
type Portfolio struct {
	Account   *Account        `json:"account"`
	Activity  []*Activity     `json:"activity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Valuation decimal.Decimal `json:"valuation"`
}
