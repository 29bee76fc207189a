package gormstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
)

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"size:64;not null"`
	// UsernameKey 小寫後的名稱，唯一索引保證不分大小寫不重複
	UsernameKey  string          `gorm:"size:64;not null;uniqueIndex"`
	PasswordHash string          `gorm:"size:255;not null"`
	Cash         decimal.Decimal `gorm:"type:decimal(32,8);not null"`
	Asset        decimal.Decimal `gorm:"type:decimal(32,8);not null"`
	Role         string          `gorm:"size:16;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

func fromAccount(a *domain.Account) *sqlAccount {
	return &sqlAccount{
		ID:           a.ID,
		Username:     a.Username,
		UsernameKey:  domain.UsernameKey(a.Username),
		PasswordHash: a.PasswordHash,
		Cash:         a.Cash,
		Asset:        a.Asset,
		Role:         string(a.Role),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (m *sqlAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Cash:         m.Cash,
		Asset:        m.Asset,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// sqlActivity 對應資料庫的 activities 表
//
// 三種 variant 攤平成可為 NULL 的欄位，依 kind 決定哪一組有值。
type sqlActivity struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	RefID     string `gorm:"column:ref_id;size:36;not null;uniqueIndex"`
	AccountID int64  `gorm:"not null;index"`
	Kind      string `gorm:"size:16;not null;index"`
	CreatedAt time.Time

	// trade
	Direction   *string             `gorm:"size:8"`
	AssetAmount decimal.NullDecimal `gorm:"type:decimal(32,8)"`
	UnitPrice   decimal.NullDecimal `gorm:"type:decimal(32,8)"`

	// withdrawal
	Amount     decimal.NullDecimal `gorm:"type:decimal(32,8)"`
	Wallet     *string             `gorm:"size:255"`
	Status     *string             `gorm:"size:16"`
	ApprovedAt *time.Time

	// topup
	CashDelta  decimal.NullDecimal `gorm:"type:decimal(32,8)"`
	AssetDelta decimal.NullDecimal `gorm:"type:decimal(32,8)"`
	OperatorID *int64
}

func (*sqlActivity) TableName() string {
	return "activities"
}

func nullDec(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func ptr[T any](v T) *T {
	return &v
}

func fromActivity(a *domain.Activity) *sqlActivity {
	m := &sqlActivity{
		ID:        a.ID,
		RefID:     a.RefID.String(),
		AccountID: a.AccountID,
		Kind:      string(a.Kind),
		CreatedAt: a.CreatedAt,
	}
	if t := a.Trade; t != nil {
		m.Direction = ptr(string(t.Direction))
		m.AssetAmount = nullDec(t.AssetAmount)
		m.UnitPrice = nullDec(t.UnitPrice)
	}
	if w := a.Withdrawal; w != nil {
		m.Amount = nullDec(w.Amount)
		m.Wallet = ptr(w.Wallet)
		m.Status = ptr(string(w.Status))
		m.ApprovedAt = w.ApprovedAt
	}
	if t := a.TopUp; t != nil {
		m.CashDelta = nullDec(t.CashDelta)
		m.AssetDelta = nullDec(t.AssetDelta)
		m.OperatorID = ptr(t.OperatorID)
	}
	return m
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (m *sqlActivity) toDomain() *domain.Activity {
	a := &domain.Activity{
		ID:        m.ID,
		RefID:     uuid.MustParse(m.RefID),
		AccountID: m.AccountID,
		Kind:      domain.ActivityKind(m.Kind),
		CreatedAt: m.CreatedAt,
	}
	switch a.Kind {
	case domain.KindTrade:
		a.Trade = &domain.Trade{
			Direction:   domain.TradeDirection(deref(m.Direction)),
			AssetAmount: m.AssetAmount.Decimal,
			UnitPrice:   m.UnitPrice.Decimal,
		}
	case domain.KindWithdrawal:
		a.Withdrawal = &domain.Withdrawal{
			Amount:     m.Amount.Decimal,
			Wallet:     deref(m.Wallet),
			Status:     domain.WithdrawalStatus(deref(m.Status)),
			ApprovedAt: m.ApprovedAt,
		}
	case domain.KindTopUp:
		a.TopUp = &domain.TopUp{
			CashDelta:  m.CashDelta.Decimal,
			AssetDelta: m.AssetDelta.Decimal,
			OperatorID: deref(m.OperatorID),
		}
	}
	return a
}

// sqlMessage 對應資料庫的 support_messages 表
type sqlMessage struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	AccountID int64  `gorm:"not null;index"`
	Sender    string `gorm:"size:8;not null"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (*sqlMessage) TableName() string {
	return "support_messages"
}

func (m *sqlMessage) toDomain() *domain.SupportMessage {
	return &domain.SupportMessage{
		ID:        m.ID,
		AccountID: m.AccountID,
		Sender:    domain.Sender(m.Sender),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

// sqlNFT 對應資料庫的 nfts 表
type sqlNFT struct {
	ID        string          `gorm:"primaryKey;size:36"`
	Name      string          `gorm:"size:128;not null"`
	ImageURL  string          `gorm:"size:512"`
	Price     decimal.Decimal `gorm:"type:decimal(32,8);not null"`
	CreatedBy int64
	CreatedAt time.Time `gorm:"index"`
}

func (*sqlNFT) TableName() string {
	return "nfts"
}

func (m *sqlNFT) toDomain() *domain.NFT {
	return &domain.NFT{
		ID:        uuid.MustParse(m.ID),
		Name:      m.Name,
		ImageURL:  m.ImageURL,
		Price:     m.Price,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}
