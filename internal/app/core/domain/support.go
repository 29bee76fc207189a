package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxMessageLength 單則客服訊息長度上限 (rune)
const MaxMessageLength = 2000

// Sender 客服訊息發送方
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAdmin Sender = "admin"
)

// SupportMessage 使用者與客服之間的訊息，只能追加
type SupportMessage struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSupportMessage(accountID int64, sender Sender, text string) (*SupportMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, ErrInvalidMessage
	}
	if sender != SenderUser && sender != SenderAdmin {
		return nil, ErrInvalidMessage
	}
	return &SupportMessage{
		AccountID: accountID,
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NFT 管理員維護的展示型目錄項目
type NFT struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	Price     decimal.Decimal `json:"price"`
	CreatedBy int64           `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewNFT(name, imageURL string, price decimal.Decimal, createdBy int64) (*NFT, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidNFT
	}
	price = price.Round(Scale)
	if !price.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &NFT{
		ID:        uuid.New(),
		Name:      name,
		ImageURL:  strings.TrimSpace(imageURL),
		Price:     price,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}, nil
}
