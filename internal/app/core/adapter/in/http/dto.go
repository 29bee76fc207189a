package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
)

type credentialsRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type authResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *domain.Account `json:"account"`
}

type renameRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

// tradeRequest UnitPrice 省略時使用目前報價；明確給 0 或負數會被拒絕
type tradeRequest struct {
	AssetAmount decimal.Decimal  `json:"asset_amount" validate:"dpositive"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

type withdrawRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"dpositive"`
	Wallet string          `json:"wallet" validate:"required,max=255"`
}

type messageRequest struct {
	Text string `json:"text" validate:"required"`
}

type adjustRequest struct {
	CashDelta  decimal.Decimal `json:"cash_delta"`
	AssetDelta decimal.Decimal `json:"asset_delta"`
}

type createNFTRequest struct {
	Name     string          `json:"name" validate:"required,max=128"`
	ImageURL string          `json:"image_url" validate:"omitempty,url,max=512"`
	Price    decimal.Decimal `json:"price"`
}

type priceResponse struct {
	Symbol    string          `json:"symbol"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
