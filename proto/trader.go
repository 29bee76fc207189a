package proto

import (
	"time"

	"github.com/shopspring/decimal"
)

type Empty struct{}

// --- auth ---

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthReply struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   *Account  `json:"account"`
}

type RenameRequest struct {
	Username string `json:"username"`
}

// --- ledger ---

type Account struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	Cash      decimal.Decimal `json:"cash"`
	Asset     decimal.Decimal `json:"asset"`
	Role      string          `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

// Activity 攤平的活動紀錄，依 Kind 只有對應欄位有值
type Activity struct {
	ID        int64     `json:"id"`
	RefID     string    `json:"ref_id"`
	AccountID int64     `json:"account_id"`
	Username  string    `json:"username,omitempty"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`

	Direction   string           `json:"direction,omitempty"`
	AssetAmount *decimal.Decimal `json:"asset_amount,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`

	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Wallet     string           `json:"wallet,omitempty"`
	Status     string           `json:"status,omitempty"`
	ApprovedAt *time.Time       `json:"approved_at,omitempty"`

	CashDelta  *decimal.Decimal `json:"cash_delta,omitempty"`
	AssetDelta *decimal.Decimal `json:"asset_delta,omitempty"`
	OperatorID int64            `json:"operator_id,omitempty"`
}

// TradeRequest UnitPrice 為 nil 時使用伺服器報價
type TradeRequest struct {
	AssetAmount decimal.Decimal  `json:"asset_amount"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
}

type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Wallet string          `json:"wallet"`
}

// LedgerReply 帳務操作結果
type LedgerReply struct {
	Account  *Account  `json:"account"`
	Activity *Activity `json:"activity,omitempty"`
}

type ListActivityRequest struct {
	AccountID int64  `json:"account_id,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type ActivityList struct {
	Items []*Activity `json:"items"`
}

type PortfolioRequest struct {
	Limit int `json:"limit,omitempty"`
}

type Portfolio struct {
	Account   *Account        `json:"account"`
	Activity  []*Activity     `json:"activity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Valuation decimal.Decimal `json:"valuation"`
}

type PriceReply struct {
	Symbol    string          `json:"symbol"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// --- support ---

type PostMessageRequest struct {
	AccountID int64  `json:"account_id,omitempty"`
	Text      string `json:"text"`
}

type ListMessagesRequest struct {
	AccountID int64 `json:"account_id,omitempty"`
	AfterID   int64 `json:"after_id,omitempty"`
}

type Message struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageList struct {
	Items []*Message `json:"items"`
}

// --- catalog ---

type NFT struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

type NFTList struct {
	Items []*NFT `json:"items"`
}

type CreateNFTRequest struct {
	Name     string          `json:"name"`
	ImageURL string          `json:"image_url"`
	Price    decimal.Decimal `json:"price"`
}

type DeleteNFTRequest struct {
	ID string `json:"id"`
}

// --- admin ---

type AccountList struct {
	Items []*Account `json:"items"`
}

type AdjustRequest struct {
	AccountID  int64           `json:"account_id"`
	CashDelta  decimal.Decimal `json:"cash_delta"`
	AssetDelta decimal.Decimal `json:"asset_delta"`
}

type ApproveRequest struct {
	WithdrawalID int64 `json:"withdrawal_id"`
}

type DeleteAccountRequest struct {
	AccountID int64 `json:"account_id"`
}
