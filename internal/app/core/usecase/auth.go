package usecase

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
)

// AuthService 註冊、登入與帳戶名稱管理
//
// 只負責密碼檢查，token 的簽發與驗證在傳輸層 (pkg/auth)。
type AuthService struct {
	store        AccountStore
	startingCash decimal.Decimal
	cost         int
	log          *zap.Logger
}

// NewAuthService cost 為 0 時使用 bcrypt.DefaultCost
func NewAuthService(store AccountStore, startingCash decimal.Decimal, cost int, log *zap.Logger) *AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:        store,
		startingCash: startingCash,
		cost:         cost,
		log:          log.Named("auth"),
	}
}

// Register 建立一般使用者帳戶，現金為起始金額、資產為 0
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.Account, error) {
	return s.create(ctx, username, password, domain.RoleUser)
}

// Login 驗證密碼
//
// 回傳:
//
//	*domain.Account: 登入成功的帳戶
//	error: ErrAccountNotFound (無此使用者) / ErrBadCredential (密碼錯誤)
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Account, error) {
	acc, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrBadCredential
	}
	return acc, nil
}

// RenameAccount 修改自己的使用者名稱
func (s *AuthService) RenameAccount(ctx context.Context, p domain.Principal, username string) (*domain.Account, error) {
	name, _, err := domain.NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	return s.store.RenameAccount(ctx, p.AccountID, name)
}

// EnsureAdmin 管理員帳戶不存在時建立
//
// 回傳:
//
//	*domain.Account: 管理員帳戶
//	bool: 是否為本次新建
//	error: 同名帳戶存在但不是管理員時回傳 ErrForbidden
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (*domain.Account, bool, error) {
	acc, err := s.store.GetAccountByUsername(ctx, username)
	if err == nil {
		if !acc.IsAdmin() {
			return nil, false, domain.ErrForbidden
		}
		return acc, false, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, false, err
	}
	acc, err = s.create(ctx, username, password, domain.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return acc, true, nil
}

func (s *AuthService) create(ctx context.Context, username, password string, role domain.Role) (*domain.Account, error) {
	name, _, err := domain.NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(password) < 4 {
		return nil, domain.ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	cash := s.startingCash
	if role == domain.RoleAdmin {
		cash = decimal.Zero
	}
	acc := domain.NewAccount(name, string(hash), cash, role)
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}
	s.log.Info("account created", zap.Int64("account_id", acc.ID), zap.String("username", acc.Username), zap.String("role", string(role)))
	return acc, nil
}
