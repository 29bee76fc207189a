package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
)

// MutateFunc 在已鎖定的帳戶副本上執行一次帳務操作
//
// 回傳的 Activity 會與帳戶新狀態在同一個交易內寫入；
// 回傳 error 時 Store 不得寫入任何東西。
type MutateFunc func(acc *domain.Account) (*domain.Activity, error)

// AccountStore 帳戶資料，唯一擁有 Account 的元件
type AccountStore interface {
	// CreateAccount 建立帳戶並回填 ID，使用者名稱 (不分大小寫) 重複時回傳 ErrUsernameTaken
	CreateAccount(ctx context.Context, acc *domain.Account) error
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]*domain.Account, error)
	RenameAccount(ctx context.Context, id int64, username string) (*domain.Account, error)
	// Mutate 同一帳戶的呼叫必須序列化 (row lock / per-account mutex)
	Mutate(ctx context.Context, id int64, fn MutateFunc) (*domain.Account, *domain.Activity, error)
	// DeleteAccount 連同活動紀錄與客服訊息一起刪除
	DeleteAccount(ctx context.Context, id int64) error
}

// ActivityLog 只能追加的活動紀錄
type ActivityLog interface {
	GetActivity(ctx context.Context, id int64) (*domain.Activity, error)
	// ListActivity 依 ID 由新到舊
	ListActivity(ctx context.Context, filter domain.ActivityFilter) ([]*domain.Activity, error)
	// ApproveWithdrawal pending -> approved，已核准時原樣回傳
	ApproveWithdrawal(ctx context.Context, id int64, now time.Time) (*domain.Activity, error)
}

// SupportLog 客服訊息
type SupportLog interface {
	// AppendMessage 帳戶不存在時回傳 ErrAccountNotFound
	AppendMessage(ctx context.Context, msg *domain.SupportMessage) error
	// ListMessages 由舊到新，只回傳 ID > afterID 的訊息
	ListMessages(ctx context.Context, accountID, afterID int64) ([]*domain.SupportMessage, error)
}

// Catalog NFT 目錄
type Catalog interface {
	CreateNFT(ctx context.Context, nft *domain.NFT) error
	ListNFTs(ctx context.Context) ([]*domain.NFT, error)
	DeleteNFT(ctx context.Context, id uuid.UUID) error
}

// Store 所有儲存實作 (memory / gorm) 都要滿足的介面
type Store interface {
	AccountStore
	ActivityLog
	SupportLog
	Catalog
}

// PriceFeed 外部報價來源，對帳本而言只是一個正數
type PriceFeed interface {
	Current(ctx context.Context) (decimal.Decimal, error)
}
