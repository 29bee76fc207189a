package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
)

// AdminService 管理後台
//
// 每個方法都先以 Principal 重新載入呼叫者帳戶並確認 role = admin，
// 不符合時回傳 ErrForbidden 且不做任何修改。
type AdminService struct {
	store   Store
	support *SupportService
	log     *zap.Logger
}

func NewAdminService(store Store, support *SupportService, log *zap.Logger) *AdminService {
	return &AdminService{
		store:   store,
		support: support,
		log:     log.Named("admin"),
	}
}

// ActivityView 後台列表用，附帶帳戶名稱
type ActivityView struct {
	*domain.Activity
	Username string `json:"username"`
}

func (s *AdminService) authorize(ctx context.Context, p domain.Principal) (*domain.Account, error) {
	if p.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	caller, err := s.store.GetAccount(ctx, p.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return caller, nil
}

// ListAccounts 所有帳戶
func (s *AdminService) ListAccounts(ctx context.Context, p domain.Principal) ([]*domain.Account, error) {
	if _, err := s.authorize(ctx, p); err != nil {
		return nil, err
	}
	return s.store.ListAccounts(ctx)
}

// ListActivity 全站活動紀錄 (可依帳戶 / 種類過濾)，由新到舊
func (s *AdminService) ListActivity(ctx context.Context, p domain.Principal, filter domain.ActivityFilter) ([]ActivityView, error) {
	if _, err := s.authorize(ctx, p); err != nil {
		return nil, err
	}
	acts, err := s.store.ListActivity(ctx, filter)
	if err != nil {
		return nil, err
	}
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Username
	}
	views := make([]ActivityView, 0, len(acts))
	for _, a := range acts {
		views = append(views, ActivityView{Activity: a, Username: names[a.AccountID]})
	}
	return views, nil
}

// Adjust 加減帳戶現金 / 資產，記錄為 topup
//
// 參數:
//
//	ctx: 上下文
//	p: 呼叫者身分
//	accountID: 目標帳戶
//	cashDelta, assetDelta: 可為負，結果不可為負
//
// 回傳:
//
//	*domain.Account: 調整後的帳戶
//	*domain.Activity: topup 紀錄，OperatorID 為呼叫者
//	error: ErrForbidden / ErrInvalidAmount / ErrInsufficientFunds / ErrInsufficientAsset / ErrAccountNotFound
func (s *AdminService) Adjust(ctx context.Context, p domain.Principal, accountID int64, cashDelta, assetDelta decimal.Decimal) (*domain.Account, *domain.Activity, error) {
	caller, err := s.authorize(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	acc, act, err := s.store.Mutate(ctx, accountID, func(a *domain.Account) (*domain.Activity, error) {
		return a.Adjust(cashDelta, assetDelta, caller.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("balance adjusted",
		zap.Int64("operator_id", caller.ID),
		zap.Int64("account_id", accountID),
		zap.Stringer("cash_delta", cashDelta),
		zap.Stringer("asset_delta", assetDelta),
	)
	return acc, act, nil
}

// ApproveWithdrawal 核准提款，不再動帳；重複核准回傳同一筆 approved 紀錄
func (s *AdminService) ApproveWithdrawal(ctx context.Context, p domain.Principal, withdrawalID int64) (*domain.Activity, error) {
	caller, err := s.authorize(ctx, p)
	if err != nil {
		return nil, err
	}
	act, err := s.store.ApproveWithdrawal(ctx, withdrawalID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.Info("withdrawal approved", zap.Int64("operator_id", caller.ID), zap.Int64("withdrawal_id", withdrawalID))
	return act, nil
}

// DeleteAccount 刪除帳戶 (連同活動紀錄與客服訊息)，管理員帳戶不可刪除
func (s *AdminService) DeleteAccount(ctx context.Context, p domain.Principal, accountID int64) error {
	caller, err := s.authorize(ctx, p)
	if err != nil {
		return err
	}
	target, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if target.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.store.DeleteAccount(ctx, accountID); err != nil {
		return err
	}
	s.log.Info("account deleted", zap.Int64("operator_id", caller.ID), zap.Int64("account_id", accountID))
	return nil
}

// CreateNFT 新增目錄項目
func (s *AdminService) CreateNFT(ctx context.Context, p domain.Principal, name, imageURL string, price decimal.Decimal) (*domain.NFT, error) {
	caller, err := s.authorize(ctx, p)
	if err != nil {
		return nil, err
	}
	nft, err := domain.NewNFT(name, imageURL, price, caller.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateNFT(ctx, nft); err != nil {
		return nil, err
	}
	return nft, nil
}

func (s *AdminService) DeleteNFT(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	if _, err := s.authorize(ctx, p); err != nil {
		return err
	}
	return s.store.DeleteNFT(ctx, id)
}

// Reply 以客服身分回覆指定帳戶
func (s *AdminService) Reply(ctx context.Context, p domain.Principal, accountID int64, text string) (*domain.SupportMessage, error) {
	if _, err := s.authorize(ctx, p); err != nil {
		return nil, err
	}
	return s.support.Post(ctx, accountID, domain.SenderAdmin, text)
}

// ListMessages 查看任一帳戶的客服對話
func (s *AdminService) ListMessages(ctx context.Context, p domain.Principal, accountID, afterID int64) ([]*domain.SupportMessage, error) {
	if _, err := s.authorize(ctx, p); err != nil {
		return nil, err
	}
	return s.support.List(ctx, accountID, afterID)
}
